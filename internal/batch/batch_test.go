package batch

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/relink/internal/blobtype"
)

type fakeSource struct {
	mu     sync.Mutex
	chunks map[int32][]byte
	loads  map[int32]int
}

func newFakeSource(chunks map[int32][]byte) *fakeSource {
	return &fakeSource{chunks: chunks, loads: make(map[int32]int)}
}

func (s *fakeSource) Chunk(i int32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[i]++
	data, ok := s.chunks[i]
	if !ok {
		return nil, blobtype.ErrCorruptArchive
	}
	return data, nil
}

// memSink collects committed contents by path.
type memSink struct {
	mu    sync.Mutex
	files map[string][]byte
	skip  map[string]bool
}

func newMemSink() *memSink {
	return &memSink{files: make(map[string][]byte), skip: make(map[string]bool)}
}

func (s *memSink) ShouldProcess(entry *Entry) bool { return !s.skip[entry.Path] }

func (s *memSink) Writer(entry *Entry) (Committer, error) {
	return &memCommitter{sink: s, path: entry.Path}, nil
}

type memCommitter struct {
	bytes.Buffer
	sink *memSink
	path string
}

func (c *memCommitter) Commit() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.files[c.path] = append([]byte{}, c.Bytes()...)
	return nil
}

func (c *memCommitter) Discard() error { return nil }

func entry(path string, chunk int32, offset, size uint32) *Entry {
	return &Entry{Path: path, Location: blobtype.FileToChunkIndexer{
		ChunkEntryIndex:             chunk,
		OffsetIntoDecompressedChunk: offset,
		FileSize:                    size,
	}}
}

func TestProcessGroupsByChunk(t *testing.T) {
	t.Parallel()

	src := newFakeSource(map[int32][]byte{
		0: []byte("aaaabbbbbb"),
		1: []byte("cc"),
	})
	entries := []*Entry{
		entry("b.bin", 0, 4, 6),
		entry("c.bin", 1, 0, 2),
		entry("a.bin", 0, 0, 4),
		entry("empty.bin", blobtype.NoChunk, 0, 0),
	}
	sink := newMemSink()

	require.NoError(t, NewProcessor(src).Process(entries, sink))

	assert.Equal(t, map[string][]byte{
		"a.bin":     []byte("aaaa"),
		"b.bin":     []byte("bbbbbb"),
		"c.bin":     []byte("cc"),
		"empty.bin": {},
	}, sink.files)
	assert.Equal(t, map[int32]int{0: 1, 1: 1}, src.loads)
	assert.Equal(t, digest.FromBytes([]byte("aaaa")), entries[2].Digest)
	assert.Equal(t, digest.FromBytes(nil), entries[3].Digest)
}

func TestProcessParallelWorkers(t *testing.T) {
	t.Parallel()

	chunk := bytes.Repeat([]byte("0123456789abcdef"), 64)
	var entries []*Entry
	for i := range 16 {
		entries = append(entries, entry(string(rune('a'+i))+".bin", 0, uint32(i*64), 64))
	}
	sink := newMemSink()

	require.NoError(t, NewProcessor(newFakeSource(map[int32][]byte{0: chunk}), WithWorkers(4)).Process(entries, sink))
	require.Len(t, sink.files, 16)
	for i, e := range entries {
		assert.Equal(t, chunk[i*64:(i+1)*64], sink.files[e.Path])
		assert.NotEmpty(t, e.Digest)
	}
}

func TestProcessSkipsDeclinedEntries(t *testing.T) {
	t.Parallel()

	src := newFakeSource(map[int32][]byte{0: []byte("xy")})
	sink := newMemSink()
	sink.skip["x.bin"] = true

	require.NoError(t, NewProcessor(src).Process([]*Entry{entry("x.bin", 0, 0, 1)}, sink))
	assert.Empty(t, sink.files)
	assert.Empty(t, src.loads)
}

func TestProcessErrors(t *testing.T) {
	t.Parallel()

	src := newFakeSource(map[int32][]byte{0: []byte("short")})

	err := NewProcessor(src).Process([]*Entry{entry("x.bin", 0, 2, 10)}, newMemSink())
	require.ErrorIs(t, err, blobtype.ErrCorruptArchive)

	err = NewProcessor(src).Process([]*Entry{entry("y.bin", 7, 0, 1)}, newMemSink())
	require.ErrorIs(t, err, blobtype.ErrCorruptArchive)
}

func TestWorkerCount(t *testing.T) {
	t.Parallel()

	small := []*Entry{entry("a", 0, 0, 10), entry("b", 0, 10, 10)}
	large := []*Entry{entry("a", 0, 0, 1<<20), entry("b", 0, 1<<20, 1<<20)}

	assert.Equal(t, 1, NewProcessor(nil, WithWorkers(-1)).workerCount(large))
	assert.Equal(t, 2, NewProcessor(nil, WithWorkers(8)).workerCount(small))
	assert.Equal(t, 1, NewProcessor(nil).workerCount(small[:1]))
	assert.Equal(t, 1, NewProcessor(nil).workerCount(small))
}

func TestFileSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := newFakeSource(map[int32][]byte{0: []byte("newdata")})
	existing := filepath.Join(dir, "ui", "kept.bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	entries := []*Entry{
		entry("ui/kept.bin", 0, 0, 3),
		entry(`ui\fresh.bin`, 0, 3, 4),
	}
	require.NoError(t, NewProcessor(src).Process(entries, NewFileSink(dir)))

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got), "existing files are kept")
	got, err = os.ReadFile(filepath.Join(dir, "ui", "fresh.bin"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	require.NoError(t, NewProcessor(src).Process(entries[:1], NewFileSink(dir, WithOverwrite(true))))
	got, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	leftovers, err := filepath.Glob(filepath.Join(dir, "ui", ".relink-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileSinkRejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	src := newFakeSource(map[int32][]byte{0: []byte("x")})
	err := NewProcessor(src).Process([]*Entry{entry("../evil.bin", 0, 0, 1)}, NewFileSink(t.TempDir()))
	require.Error(t, err)
	assert.False(t, errors.Is(err, blobtype.ErrCorruptArchive))
}
