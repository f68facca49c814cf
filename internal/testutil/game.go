// Package testutil builds on-disk game fixtures for tests.
package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/relink/internal/blobtype"
	"github.com/meigma/relink/internal/fb"
	"github.com/meigma/relink/internal/index"
	"github.com/meigma/relink/internal/pathhash"
)

// File is an archived file stored in a test chunk.
type File struct {
	Path string
	Data []byte
}

// Chunk groups files stored back to back in one archive chunk.
type Chunk struct {
	Files []File

	// Raw stores the chunk uncompressed.
	Raw bool

	// Archive is the data.<N> blob the chunk lives in.
	Archive uint8
}

// Game describes the archived and external files of a test installation.
type Game struct {
	Chunks   []Chunk
	Empty    []string
	External []index.ExternalFile

	// NumArchives defaults to one more than the highest Archive used.
	NumArchives uint16
}

// Build returns the pristine index model and the archive blobs keyed by
// archive number.
func (g Game) Build(tb testing.TB) (*index.Model, map[uint8][]byte) {
	tb.Helper()

	blobs := make(map[uint8][]byte)
	var chunks []blobtype.DataChunk
	var files []index.ArchiveFile
	numArchives := g.NumArchives

	for ci, c := range g.Chunks {
		var plain []byte
		for _, f := range c.Files {
			files = append(files, index.ArchiveFile{
				Hash: pathhash.Hash(f.Path),
				Indexer: blobtype.FileToChunkIndexer{
					ChunkEntryIndex:             int32(ci),
					FileSize:                    uint32(len(f.Data)),
					OffsetIntoDecompressedChunk: uint32(len(plain)),
				},
			})
			plain = append(plain, f.Data...)
		}

		stored := plain
		if !c.Raw {
			stored = compress(tb, plain)
		}
		chunks = append(chunks, blobtype.DataChunk{
			FileOffset:       uint64(len(blobs[c.Archive])),
			Size:             uint32(len(stored)),
			UncompressedSize: uint32(len(plain)),
			AllocAlignment:   16,
			DataFileNumber:   c.Archive,
		})
		blobs[c.Archive] = append(blobs[c.Archive], stored...)
		if uint16(c.Archive) >= numArchives {
			numArchives = uint16(c.Archive) + 1
		}
	}
	for _, p := range g.Empty {
		files = append(files, index.ArchiveFile{
			Hash:    pathhash.Hash(p),
			Indexer: blobtype.FileToChunkIndexer{ChunkEntryIndex: blobtype.NoChunk},
		})
	}
	if numArchives == 0 {
		numArchives = 1
	}

	m, err := index.NewModel(index.Params{
		Codename:      index.OriginalCodename,
		NumArchives:   numArchives,
		Chunks:        chunks,
		ArchiveFiles:  files,
		ExternalFiles: g.External,
	})
	if err != nil {
		tb.Fatalf("build index: %v", err)
	}
	return m, blobs
}

// Write builds the game into gameDir: data.i and the data.<N> blobs at the
// top level and an empty data directory for loose files. It returns the
// pristine index bytes.
func (g Game) Write(tb testing.TB, gameDir string) []byte {
	tb.Helper()

	m, blobs := g.Build(tb)
	if err := os.MkdirAll(filepath.Join(gameDir, "data"), 0o755); err != nil {
		tb.Fatalf("create data dir: %v", err)
	}

	raw := Pristine(index.Marshal(m))
	WriteFile(tb, filepath.Join(gameDir, "data.i"), raw)
	for n := range m.NumArchives() {
		WriteFile(tb, filepath.Join(gameDir, "data."+strconv.Itoa(n)), blobs[uint8(n)])
	}
	return raw
}

// Pristine rewrites an encoded index so it has the shipped layout: the table
// moves 8 bytes further and zeros follow the root offset.
func Pristine(data []byte) []byte {
	out := make([]byte, len(data)+8)
	binary.LittleEndian.PutUint32(out, binary.LittleEndian.Uint32(data)+8)
	copy(out[12:], data[4:])
	return out
}

// ModelInfo encodes a model-info buffer carrying magic.
func ModelInfo(magic uint32) []byte {
	b := flatbuffers.NewBuilder(64)
	fb.ModelInfoStart(b)
	fb.ModelInfoAddMagic(b, magic)
	b.Finish(fb.ModelInfoEnd(b))
	return b.FinishedBytes()
}

// Compressible returns n bytes of repetitive content derived from seed.
func Compressible(seed string, n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, seed...)
	}
	return out[:n]
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(tb testing.TB, path string, data []byte) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}

// compress LZ4-compresses a block. Incompressible input is returned as is
// so the chunk is recorded as stored.
func compress(tb testing.TB, plain []byte) []byte {
	tb.Helper()
	dst := make([]byte, lz4.CompressBlockBound(len(plain)))
	n, err := lz4.CompressBlock(plain, dst, nil)
	if err != nil {
		tb.Fatalf("lz4 compress: %v", err)
	}
	if n == 0 || n >= len(plain) {
		return plain
	}
	return dst[:n]
}
