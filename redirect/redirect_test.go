package redirect

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableLastRedirectWins(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	tbl.AddRedirect("/game/data/x/y.tex", "/mods/a/x/y.tex")
	tbl.AddRedirect("/game/data/x/./y.tex", "/mods/b/x/y.tex")

	to, ok := tbl.Lookup("/game/data/x/y.tex")
	require.True(t, ok)
	assert.Equal(t, "/mods/b/x/y.tex", to)
	assert.Equal(t, 1, tbl.Len())

	_, ok = tbl.Lookup("/game/data/other")
	assert.False(t, ok)
}

func TestTableConcurrentAdds(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl.AddRedirect(filepath.Join("/game", string(rune('a'+i))), "/target")
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, tbl.Len())
}

func TestManifestRoundTrip(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	tbl.AddRedirect("/game/data/b.msg", "/state/temp/mod/b.msg")
	tbl.AddRedirect("/game/data/a.tex", "/mods/a.tex")

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteManifest(&buf))
	assert.Equal(t, "redirects:\n  /game/data/a.tex: /mods/a.tex\n  /game/data/b.msg: /state/temp/mod/b.msg\n", buf.String())

	path := filepath.Join(t.TempDir(), "redirects.yaml")
	require.NoError(t, tbl.SaveManifest(path))
	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Entries(), loaded.Entries())
}

func TestReadManifestEmptyAndInvalid(t *testing.T) {
	t.Parallel()

	tbl, err := ReadManifest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, tbl.Len())

	_, err = ReadManifest(strings.NewReader("redirects: [not, a, map]"))
	require.Error(t, err)
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()

	var got [][2]string
	var r Redirector = Func(func(from, to string) {
		got = append(got, [2]string{from, to})
	})
	r.AddRedirect("a", "b")
	Discard.AddRedirect("c", "d")
	assert.Equal(t, [][2]string{{"a", "b"}}, got)
}
