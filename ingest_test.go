package relink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/meigma/relink/internal/convert"
	"github.com/meigma/relink/internal/fb"
	"github.com/meigma/relink/internal/pathhash"
	"github.com/meigma/relink/internal/testutil"
)

func writeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for p, content := range files {
		testutil.WriteFile(t, filepath.Join(dir, filepath.FromSlash(p)), []byte(content))
	}
	return dir
}

func TestRegisterOverridesArchivedFile(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := writeSource(t, map[string]string{"chr/c1.mdl": "0123456789"})

	sum, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, Summary{SourceID: "modA", Files: 1, Added: 1, Bytes: 10}, sum)

	hash := pathhash.Hash("chr/c1.mdl")
	size, ok := e.working.LookupExternal(hash)
	require.True(t, ok)
	assert.Equal(t, uint64(10), size)
	_, ok = e.working.LookupArchive(hash)
	assert.False(t, ok)

	_, ok = e.pristine.LookupArchive(hash)
	assert.True(t, ok, "pristine index is never mutated")

	to, ok := env.table.Lookup(filepath.Join(env.gameDir, "data", "chr", "c1.mdl"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(src, "chr", "c1.mdl"), to)
}

func TestRegisterTwiceUpdates(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := writeSource(t, map[string]string{"ui/a.bin": "abc", "ui/b.bin": "de"})

	first, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Added)

	second, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 2, second.Updated)
	assert.Zero(t, second.Conflicts, "re-registering the same source is not a conflict")
	assert.Equal(t, 2, e.working.ExternalLen())
}

func TestRegisterJSONProducesMsg(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := writeSource(t, map[string]string{"a.json": `{"b": 2, "a": 1}`})

	sum, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Files)

	_, ok := e.working.LookupExternal(pathhash.Hash("a.msg"))
	assert.True(t, ok)
	_, ok = e.working.LookupExternal(pathhash.Hash("a.json"))
	assert.False(t, ok, "the json source is never registered")

	produced := filepath.Join(env.stateDir, "temp", "modA", "a.msg")
	data, err := os.ReadFile(produced)
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, decoded)

	to, ok := env.table.Lookup(filepath.Join(env.gameDir, "data", "a.msg"))
	require.True(t, ok)
	assert.Equal(t, produced, to)

	got, err := e.OverlayOrArchiveFile("a.msg")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRegisterInvalidJSONFallsBack(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := writeSource(t, map[string]string{"notes.json": "not json at all"})

	sum, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Files)

	size, ok := e.working.LookupExternal(pathhash.Hash("notes.msg"))
	require.True(t, ok)
	assert.Equal(t, uint64(len("not json at all")), size)
	assert.Contains(t, env.logs.String(), "transform failed")
}

func TestRegisterMsgWithJSONSibling(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := writeSource(t, map[string]string{
		"t/a.json": `{"k": "v"}`,
		"t/a.msg":  "stale",
		"t/b.msg":  "standalone",
	})

	sum, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Files)
	assert.Zero(t, sum.Conflicts)

	to, ok := env.table.Lookup(filepath.Join(env.gameDir, "data", "t", "a.msg"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(env.stateDir, "temp", "modA", "t", "a.msg"), to, "converted output wins")

	to, ok = env.table.Lookup(filepath.Join(env.gameDir, "data", "t", "b.msg"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(src, "t", "b.msg"), to)
}

func TestRegisterMsgPassesThroughWhenConversionDisabled(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame(), WithJSONToMsgPack(false))
	src := writeSource(t, map[string]string{"a.json": `{}`, "a.msg": "binary"})

	sum, err := env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Zero(t, sum.Skipped)
	assert.Equal(t, 2, sum.Files)

	_, ok := env.engine.working.LookupExternal(pathhash.Hash("a.json"))
	assert.True(t, ok)
	size, ok := env.engine.working.LookupExternal(pathhash.Hash("a.msg"))
	require.True(t, ok)
	assert.Equal(t, uint64(6), size)
}

func TestRegisterModelInfo(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := t.TempDir()
	old := testutil.ModelInfo(20240101)
	current := testutil.ModelInfo(20240301)
	testutil.WriteFile(t, filepath.Join(src, "model", "old.minfo"), old)
	testutil.WriteFile(t, filepath.Join(src, "model", "new.minfo"), current)

	sum, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Files)

	upgraded, err := e.OverlayOrArchiveFile("model/old.minfo")
	require.NoError(t, err)
	assert.Equal(t, uint32(convert.ModelInfoCompatMagic), fb.GetRootAsModelInfo(upgraded, 0).Magic())
	assert.FileExists(t, filepath.Join(env.stateDir, "temp", "modA", "model", "old.minfo"))

	passed, err := e.OverlayOrArchiveFile("model/new.minfo")
	require.NoError(t, err)
	assert.Equal(t, current, passed)
	to, ok := env.table.Lookup(filepath.Join(env.gameDir, "data", "model", "new.minfo"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(src, "model", "new.minfo"), to)
}

func TestRegisterModelInfoUpgradeDisabled(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame(), WithModelInfoUpgrade(false))
	src := t.TempDir()
	old := testutil.ModelInfo(20240101)
	testutil.WriteFile(t, filepath.Join(src, "old.minfo"), old)

	_, err := env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)

	got, err := env.engine.OverlayOrArchiveFile("old.minfo")
	require.NoError(t, err)
	assert.Equal(t, old, got)
}

func TestRegisterXMLProducesBXM(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := writeSource(t, map[string]string{
		"ui/layout.bxm.xml": `<layout><item id="1">x</item></layout>`,
		"ui/broken.xml":     `<unclosed>`,
	})

	sum, err := e.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 1, sum.Failed)

	data, err := e.OverlayOrArchiveFile("ui/layout.bxm")
	require.NoError(t, err)
	assert.Equal(t, "XML\x00", string(data[:4]))

	_, ok := e.working.LookupExternal(pathhash.Hash("ui/broken.xml"))
	assert.True(t, ok, "failed conversions keep the xml game path")
	_, ok = e.working.LookupExternal(pathhash.Hash("ui/layout.bxm.xml"))
	assert.False(t, ok)
}

func TestRegisterConflictLastWriterWins(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	modA := writeSource(t, map[string]string{"x/y.tex": "from A"})
	modB := writeSource(t, map[string]string{"x/y.tex": "from modB"})

	sumA, err := e.RegisterSourceFiles("modA", modA)
	require.NoError(t, err)
	assert.Zero(t, sumA.Conflicts)

	sumB, err := e.RegisterSourceFiles("modB", modB)
	require.NoError(t, err)
	assert.Equal(t, 1, sumB.Conflicts)
	assert.Equal(t, 1, sumB.Updated)

	assert.Equal(t, "modB", e.owners[pathhash.Normalize("x/y.tex")].sourceID)
	got, err := e.OverlayOrArchiveFile("X/Y.TEX")
	require.NoError(t, err)
	assert.Equal(t, "from modB", string(got))

	size, _ := e.working.LookupExternal(pathhash.Hash("x/y.tex"))
	assert.Equal(t, uint64(len("from modB")), size)

	logs := env.logs.String()
	assert.Contains(t, logs, "potential conflict")
	assert.Contains(t, logs, "previous=modA")
}

func TestRegisterConflictWithinOneSource(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	src := writeSource(t, map[string]string{
		"ui/a.bxm":     "prebuilt",
		"ui/a.bxm.xml": `<a/>`,
	})

	sum, err := env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Conflicts)
	assert.Equal(t, 1, env.engine.working.ExternalLen())
}

func TestRegisterIgnorePatterns(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame(), WithIgnorePatterns("**/.git/**", "**/*.bak", "[invalid"))
	src := writeSource(t, map[string]string{
		"ui/a.bin":        "a",
		"ui/a.bin.bak":    "old",
		".git/config":     "[core]",
		"sub/.git/HEAD":   "ref",
		"sub/keep/me.bin": "me",
	})

	sum, err := env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Files)
	assert.True(t, env.engine.FileExists("sub/keep/me.bin", true, true))
	assert.False(t, env.engine.FileExists(".git/config", true, false))
}

func TestRegisterCustomTransform(t *testing.T) {
	t.Parallel()

	upper := func(tc *TransformContext, sourcePath, gamePath string) (Result, error) {
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return Result{}, err
		}
		out := tc.ScratchPath(gamePath)
		testutil.WriteFile(t, out, []byte(strings.ToUpper(string(data))))
		return Result{Kind: Produced, GamePath: gamePath, Target: out}, nil
	}
	skip := func(_ *TransformContext, _, gamePath string) (Result, error) {
		return Result{Kind: Skip, GamePath: gamePath}, nil
	}

	env := initEnv(t, defaultGame(), WithTransform(".TXT", upper), WithTransform(".tmp", skip))
	src := writeSource(t, map[string]string{"readme.txt": "hello", "scratch.tmp": "x"})

	sum, err := env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Files)
	assert.Equal(t, 1, sum.Skipped)

	got, err := env.engine.OverlayOrArchiveFile("readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(got))
	_, ok := env.table.Lookup(filepath.Join(env.gameDir, "data", "scratch.tmp"))
	assert.False(t, ok)
}

func TestRegisterReusesCachedConversion(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	src := writeSource(t, map[string]string{"a.json": `{"k": 1}`})
	modTime := time.Date(2024, time.March, 9, 14, 5, 7, 0, time.Local)
	require.NoError(t, os.Chtimes(filepath.Join(src, "a.json"), modTime, modTime))

	_, err := env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	_, err = env.engine.PersistIndex()
	require.NoError(t, err)

	// Mark the produced file so a reconversion would be visible.
	produced := filepath.Join(env.stateDir, "temp", "modA", "a.msg")
	testutil.WriteFile(t, produced, []byte("cached output"))

	next := env.newEngine(WithVerbose(true))
	require.NoError(t, next.Initialize())
	defer next.Close()
	_, err = next.RegisterSourceFiles("modA", src)
	require.NoError(t, err)

	got, err := next.OverlayOrArchiveFile("a.msg")
	require.NoError(t, err)
	assert.Equal(t, "cached output", string(got))
	assert.Contains(t, env.logs.String(), "already up to date")

	// A newer source invalidates the entry.
	later := modTime.Add(time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(src, "a.json"), later, later))
	_, err = next.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	got, err = next.OverlayOrArchiveFile("a.msg")
	require.NoError(t, err)
	assert.NotEqual(t, "cached output", string(got))
}

func TestRegisterConvertsAgainWhenOutputMissing(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	src := writeSource(t, map[string]string{"a.json": `{"k": 1}`})

	_, err := env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	produced := filepath.Join(env.stateDir, "temp", "modA", "a.msg")
	require.NoError(t, os.Remove(produced))

	_, err = env.engine.RegisterSourceFiles("modA", src)
	require.NoError(t, err)
	assert.FileExists(t, produced)
}

func TestPersistDropsUnusedCacheEntries(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	testutil.WriteFile(t, filepath.Join(env.stateDir, CacheFileName), []byte(
		"// relink mod file cache\nmod_id|gone\nfile|old.msg|01/01/2024 00:00:00\n\n"))

	next := env.newEngine()
	require.NoError(t, next.Initialize())
	defer next.Close()
	_, err := next.RegisterSourceFiles("modA", writeSource(t, map[string]string{"a.bin": "a"}))
	require.NoError(t, err)
	_, err = next.PersistIndex()
	require.NoError(t, err)

	saved, err := os.ReadFile(filepath.Join(env.stateDir, CacheFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(saved), "mod_id|gone")
	assert.Contains(t, string(saved), "file|a.bin|")
}

func TestRegisterSourceFilesErrors(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine

	_, err := e.RegisterSourceFiles("", t.TempDir())
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.RegisterSourceFiles("modA", filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "file")
	testutil.WriteFile(t, file, []byte("x"))
	_, err = e.RegisterSourceFiles("modA", file)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPrintRedirects(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame(), WithPrintRedirects(true))
	_, err := env.engine.RegisterSourceFiles("modA", writeSource(t, map[string]string{"a.bin": "a"}))
	require.NoError(t, err)
	assert.Contains(t, env.logs.String(), "msg=redirect")
}

func TestRegisterNestedIndentedXML(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	src := writeSource(t, map[string]string{
		"ui/a.xml": "<root>\n  <a>1</a>\n  <c>\n    <d>x</d>\n  </c>\n</root>\n",
	})

	var sum Summary
	require.NotPanics(t, func() {
		var err error
		sum, err = e.RegisterSourceFiles("modA", src)
		require.NoError(t, err)
	})
	assert.Equal(t, 1, sum.Files)
	assert.Zero(t, sum.Failed)

	data, err := e.OverlayOrArchiveFile("ui/a.bxm")
	require.NoError(t, err)
	assert.Equal(t, "XML\x00", string(data[:4]))
}

func TestRegisterPanickingTransformFallsBack(t *testing.T) {
	t.Parallel()

	boom := func(_ *TransformContext, _, _ string) (Result, error) {
		panic("boom")
	}
	env := initEnv(t, defaultGame(), WithTransform(".dat", boom))
	src := writeSource(t, map[string]string{"ui/a.dat": "raw", "ui/b.bin": "other"})

	var sum Summary
	require.NotPanics(t, func() {
		var err error
		sum, err = env.engine.RegisterSourceFiles("modA", src)
		require.NoError(t, err)
	})
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, env.logs.String(), "boom")

	got, err := env.engine.OverlayOrArchiveFile("ui/a.dat")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(got))
	got, err = env.engine.OverlayOrArchiveFile("ui/b.bin")
	require.NoError(t, err)
	assert.Equal(t, "other", string(got))
}

func TestAddOrUpdateExternalFileReconvertsWithinSecond(t *testing.T) {
	t.Parallel()

	env := initEnv(t, defaultGame())
	e := env.engine
	require.NoError(t, e.AddOrUpdateExternalFile("ui/t.json", []byte(`{"v": 1}`)))
	require.NoError(t, e.AddOrUpdateExternalFile("ui/t.json", []byte(`{"v": 2}`)))

	data, err := e.OverlayOrArchiveFile("ui/t.msg")
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]int{"v": 2}, decoded)
}
