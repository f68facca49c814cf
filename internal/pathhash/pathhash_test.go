package pathhash

import (
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normal", "chr/c1.mdl", "chr/c1.mdl"},
		{"upper case", "CHR/C1.MDL", "chr/c1.mdl"},
		{"backslashes", `chr\pl\c1.mdl`, "chr/pl/c1.mdl"},
		{"mixed", `System\Table/Text.MSG`, "system/table/text.msg"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestHashCaseAndSeparatorInsensitive(t *testing.T) {
	t.Parallel()

	variants := []string{
		"chr/pl/pl0000/pl0000.minfo",
		"CHR/PL/PL0000/PL0000.MINFO",
		`chr\pl\pl0000\pl0000.minfo`,
		`Chr\Pl/pl0000\PL0000.minfo`,
	}
	want := Hash(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, want, Hash(v), "hash of %q", v)
	}
	assert.NotEqual(t, want, Hash("chr/pl/pl0000/pl0001.minfo"))
}

func TestHashMatchesBigEndianDigest(t *testing.T) {
	t.Parallel()

	d := xxhash.New()
	_, _ = d.WriteString("system/table/text/en/text.msg")
	digest := d.Sum(nil)

	assert.Equal(t, binary.BigEndian.Uint64(digest), Hash("System/Table/Text/EN/text.msg"))
}

func TestHashKnownVectors(t *testing.T) {
	t.Parallel()

	// Reference XXH64 values with seed 0.
	assert.Equal(t, uint64(0xef46db3751d8e999), Hash(""))
	assert.Equal(t, uint64(0x44bc2cf5ad770999), Hash("abc"))
	assert.Equal(t, Hash("abc"), Hash("ABC"))
}
