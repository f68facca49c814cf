package convert

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/meigma/relink/internal/blobtype"
	"github.com/meigma/relink/internal/fb"
	"github.com/meigma/relink/internal/testutil"
)

func TestGamePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"json to msg", MsgGamePath("system/table/a.json"), "system/table/a.msg"},
		{"json backslashes", MsgGamePath(`ui\text.json`), "ui/text.msg"},
		{"xml to bxm", BXMGamePath("ui/layout.xml"), "ui/layout.bxm"},
		{"bxm.xml collapses", BXMGamePath("ui/layout.bxm.xml"), "ui/layout.bxm"},
		{"bxm.xml any case", BXMGamePath("ui/Layout.BXM.xml"), "ui/Layout.BXM"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got, tt.name)
	}
}

func TestUpgradeModelInfo(t *testing.T) {
	t.Parallel()

	t.Run("outdated magic is patched", func(t *testing.T) {
		t.Parallel()
		src := testutil.ModelInfo(20240101)
		out, upgraded, err := UpgradeModelInfo(src)
		require.NoError(t, err)
		assert.True(t, upgraded)
		assert.Equal(t, uint32(ModelInfoCompatMagic), fb.GetRootAsModelInfo(out, 0).Magic())
		assert.Len(t, out, len(src))
		assert.Equal(t, uint32(20240101), fb.GetRootAsModelInfo(src, 0).Magic(), "input is not modified")
	})

	t.Run("current magic passes through", func(t *testing.T) {
		t.Parallel()
		src := testutil.ModelInfo(20240301)
		out, upgraded, err := UpgradeModelInfo(src)
		require.NoError(t, err)
		assert.False(t, upgraded)
		assert.Equal(t, src, out)
	})

	t.Run("threshold is current", func(t *testing.T) {
		t.Parallel()
		_, upgraded, err := UpgradeModelInfo(testutil.ModelInfo(ModelInfoMinMagic))
		require.NoError(t, err)
		assert.False(t, upgraded)
	})

	t.Run("absent magic cannot be patched", func(t *testing.T) {
		t.Parallel()
		_, _, err := UpgradeModelInfo(testutil.ModelInfo(0))
		require.ErrorIs(t, err, blobtype.ErrTransform)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		garbage := make([]byte, 16)
		binary.LittleEndian.PutUint32(garbage, 0xFFFFFF00)
		_, _, err := UpgradeModelInfo(garbage)
		require.ErrorIs(t, err, blobtype.ErrTransform)

		_, _, err = UpgradeModelInfo([]byte{1, 2})
		require.ErrorIs(t, err, blobtype.ErrTransform)
	})
}

func TestJSONToMsgPackKeepsKeyOrder(t *testing.T) {
	t.Parallel()

	out, err := JSONToMsgPack([]byte(`{"zeta": 1, "alpha": {"y": "s", "x": null}, "mid": [true, false]}`))
	require.NoError(t, err)

	want := []byte{
		0x83,
		0xa4, 'z', 'e', 't', 'a', 0x01,
		0xa5, 'a', 'l', 'p', 'h', 'a', 0x82,
		0xa1, 'y', 0xa1, 's',
		0xa1, 'x', 0xc0,
		0xa3, 'm', 'i', 'd', 0x92, 0xc3, 0xc2,
	}
	assert.Equal(t, want, out)
}

func TestJSONToMsgPackNumbers(t *testing.T) {
	t.Parallel()

	out, err := JSONToMsgPack([]byte(`[1.5, -3, 300, 18446744073709551615, 1e3]`))
	require.NoError(t, err)

	var got []any
	require.NoError(t, msgpack.Unmarshal(out, &got))
	require.Len(t, got, 5)
	assert.InDelta(t, 1.5, got[0], 0)
	assert.EqualValues(t, -3, got[1])
	assert.EqualValues(t, 300, got[2])
	assert.Equal(t, uint64(math.MaxUint64), got[3])
	assert.InDelta(t, 1000.0, got[4], 0)

	// -3 is a negative fixint, 300 a uint16.
	assert.Equal(t, byte(0xfd), out[10])
	assert.Equal(t, []byte{0xcd, 0x01, 0x2c}, out[11:14])
}

func TestJSONToMsgPackRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{``, `{"a":`, `{"a": 1} trailing`, `[1, 2`, `{} {}`} {
		_, err := JSONToMsgPack([]byte(input))
		require.ErrorIs(t, err, blobtype.ErrTransform, "input %q", input)
	}
}

// bxmNodeView is a decoded BXM node used to check encoder output.
type bxmNodeView struct {
	Name     string
	Text     string
	Attrs    [][2]string
	Children []bxmNodeView
}

func decodeBXM(t *testing.T, data []byte) bxmNodeView {
	t.Helper()
	require.GreaterOrEqual(t, len(data), bxmHeaderSize)
	require.Equal(t, bxmMagic, string(data[:4]))
	be := binary.BigEndian
	nodeCount := int(be.Uint16(data[8:]))
	dataCount := int(be.Uint16(data[10:]))
	strSize := int(be.Uint32(data[12:]))

	nodesAt := bxmHeaderSize
	dataAt := nodesAt + nodeCount*8
	strAt := dataAt + dataCount*4
	require.Len(t, data, strAt+strSize)

	str := func(off uint16) string {
		if off == bxmNone {
			return ""
		}
		s := data[strAt+int(off):]
		for i, b := range s {
			if b == 0 {
				return string(s[:i])
			}
		}
		t.Fatalf("unterminated string at %d", off)
		return ""
	}
	entry := func(i int) (string, string) {
		p := dataAt + i*4
		return str(be.Uint16(data[p:])), str(be.Uint16(data[p+2:]))
	}

	var build func(i int) bxmNodeView
	build = func(i int) bxmNodeView {
		p := nodesAt + i*8
		childCount := int(be.Uint16(data[p:]))
		first := int(be.Uint16(data[p+2:]))
		attrCount := int(be.Uint16(data[p+4:]))
		dataIndex := int(be.Uint16(data[p+6:]))

		var v bxmNodeView
		v.Name, v.Text = entry(dataIndex)
		for a := range attrCount {
			n, val := entry(dataIndex + 1 + a)
			v.Attrs = append(v.Attrs, [2]string{n, val})
		}
		for c := range childCount {
			v.Children = append(v.Children, build(first+c))
		}
		return v
	}
	return build(0)
}

func TestXMLToBXM(t *testing.T) {
	t.Parallel()

	src := `<?xml version="1.0" encoding="utf-8"?>
<!-- layout -->
<root a="1">
  <child>hello</child>
  <child b="x"><leaf>deep</leaf></child>
</root>`

	out, err := XMLToBXM([]byte(src))
	require.NoError(t, err)

	want := bxmNodeView{
		Name:  "root",
		Attrs: [][2]string{{"a", "1"}},
		Children: []bxmNodeView{
			{Name: "child", Text: "hello"},
			{Name: "child", Attrs: [][2]string{{"b", "x"}}, Children: []bxmNodeView{
				{Name: "leaf", Text: "deep"},
			}},
		},
	}
	assert.Equal(t, want, decodeBXM(t, out))
}

func TestXMLToBXMHeaderAndLayout(t *testing.T) {
	t.Parallel()

	out, err := XMLToBXM([]byte(`<root a="1"><child>hello</child><child b="x"/></root>`))
	require.NoError(t, err)

	want := []byte{
		'X', 'M', 'L', 0,
		0, 0, 0, 0,
		0, 3, // nodes
		0, 5, // data entries
		0, 0, 0, 25, // string table

		0, 2, 0, 1, 0, 1, 0, 0, // root
		0, 0, 0, 3, 0, 0, 0, 2, // child
		0, 0, 0, 3, 0, 1, 0, 3, // child

		0, 0, 0xFF, 0xFF, // root
		0, 5, 0, 7, // a="1"
		0, 9, 0, 15, // child "hello"
		0, 9, 0xFF, 0xFF, // child
		0, 21, 0, 23, // b="x"
	}
	want = append(want, "root\x00a\x001\x00child\x00hello\x00b\x00x\x00"...)
	assert.Equal(t, want, out)
}

func TestXMLToBXMRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{``, `<root>`, `<a></b>`, `<!-- only a comment -->`} {
		_, err := XMLToBXM([]byte(input))
		require.ErrorIs(t, err, blobtype.ErrTransform, "input %q", input)
	}
}
