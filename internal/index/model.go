package index

import (
	"fmt"
	"slices"

	"github.com/meigma/relink/internal/blobtype"
)

// Codenames recorded in the index to track provenance.
const (
	// OriginalCodename is carried by indexes shipped with the game.
	OriginalCodename = "relink"

	// ModdedCodename is written by Encode.
	ModdedCodename = "relink-reloaded-ii-mod"
)

// Model is the in-memory game index.
//
// The hash tables are kept as parallel slices to match the persisted layout.
// They are only reachable through Model methods so alignment between
// archiveHashes/indexers and externalHashes/externalSizes is preserved by
// construction. Model is not safe for concurrent use.
type Model struct {
	codename     string
	numArchives  uint16
	xxhashSeed   uint16
	chunks       []blobtype.DataChunk
	cachedChunks []uint32

	archiveHashes []uint64
	indexers      []blobtype.FileToChunkIndexer

	externalHashes []uint64
	externalSizes  []uint64
}

// ArchiveFile describes one archived file when building a Model.
type ArchiveFile struct {
	Hash    uint64
	Indexer blobtype.FileToChunkIndexer
}

// ExternalFile describes one external file when building a Model.
type ExternalFile struct {
	Hash uint64
	Size uint64
}

// Params holds the contents of a Model built with NewModel.
type Params struct {
	Codename           string
	NumArchives        uint16
	XXHashSeed         uint16
	Chunks             []blobtype.DataChunk
	CachedChunkIndices []uint32
	ArchiveFiles       []ArchiveFile
	ExternalFiles      []ExternalFile
}

// NewModel builds a Model from unsorted file lists.
//
// Files are sorted by hash. Duplicate hashes within one list are rejected
// with ErrMalformedIndex.
func NewModel(p Params) (*Model, error) {
	archive := slices.Clone(p.ArchiveFiles)
	slices.SortFunc(archive, func(a, b ArchiveFile) int { return cmpHash(a.Hash, b.Hash) })
	external := slices.Clone(p.ExternalFiles)
	slices.SortFunc(external, func(a, b ExternalFile) int { return cmpHash(a.Hash, b.Hash) })

	m := &Model{
		codename:       p.Codename,
		numArchives:    p.NumArchives,
		xxhashSeed:     p.XXHashSeed,
		chunks:         slices.Clone(p.Chunks),
		cachedChunks:   slices.Clone(p.CachedChunkIndices),
		archiveHashes:  make([]uint64, len(archive)),
		indexers:       make([]blobtype.FileToChunkIndexer, len(archive)),
		externalHashes: make([]uint64, len(external)),
		externalSizes:  make([]uint64, len(external)),
	}
	for i, f := range archive {
		m.archiveHashes[i] = f.Hash
		m.indexers[i] = f.Indexer
	}
	for i, f := range external {
		m.externalHashes[i] = f.Hash
		m.externalSizes[i] = f.Size
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func cmpHash(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// BinarySearch searches sorted for target.
//
// It returns the position of target when present. Otherwise it returns the
// bitwise complement of the position where target would be inserted, which
// is always negative.
func BinarySearch(sorted []uint64, target uint64) int {
	lo, hi := 0, len(sorted)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch v := sorted[mid]; {
		case v == target:
			return mid
		case v < target:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return ^lo
}

// InsertExternal adds hash to the external table or updates its size.
//
// It returns true when the hash was added and false when an existing entry
// was updated, along with the entry position.
func (m *Model) InsertExternal(hash, size uint64) (added bool, pos int) {
	idx := BinarySearch(m.externalHashes, hash)
	if idx >= 0 {
		m.externalSizes[idx] = size
		return false, idx
	}

	pos = ^idx
	m.externalHashes = slices.Insert(m.externalHashes, pos, hash)
	m.externalSizes = slices.Insert(m.externalSizes, pos, size)
	return true, pos
}

// RemoveArchiveIfPresent removes hash from the archive table.
// It reports whether an entry was removed.
func (m *Model) RemoveArchiveIfPresent(hash uint64) bool {
	idx := BinarySearch(m.archiveHashes, hash)
	if idx < 0 {
		return false
	}
	m.archiveHashes = slices.Delete(m.archiveHashes, idx, idx+1)
	m.indexers = slices.Delete(m.indexers, idx, idx+1)
	return true
}

// RegisterExternal makes hash an external file of the given size and drops
// any archived entry for it, so each hash keeps exactly one location.
//
// It returns true when the external entry is new.
func (m *Model) RegisterExternal(hash, size uint64) bool {
	added, _ := m.InsertExternal(hash, size)
	m.RemoveArchiveIfPresent(hash)
	return added
}

// LookupExternal returns the recorded size of an external file.
func (m *Model) LookupExternal(hash uint64) (uint64, bool) {
	idx := BinarySearch(m.externalHashes, hash)
	if idx < 0 {
		return 0, false
	}
	return m.externalSizes[idx], true
}

// LookupArchive returns the chunk indexer of an archived file.
func (m *Model) LookupArchive(hash uint64) (blobtype.FileToChunkIndexer, bool) {
	idx := BinarySearch(m.archiveHashes, hash)
	if idx < 0 {
		return blobtype.FileToChunkIndexer{}, false
	}
	return m.indexers[idx], true
}

// Chunk returns chunk i of the chunk table.
func (m *Model) Chunk(i int) (blobtype.DataChunk, bool) {
	if i < 0 || i >= len(m.chunks) {
		return blobtype.DataChunk{}, false
	}
	return m.chunks[i], true
}

// Codename returns the provenance tag.
func (m *Model) Codename() string {
	return m.codename
}

// NumArchives returns the number of data.<N> archive blobs.
func (m *Model) NumArchives() int {
	return int(m.numArchives)
}

// XXHashSeed returns the hash seed recorded in the index.
func (m *Model) XXHashSeed() uint16 {
	return m.xxhashSeed
}

// ArchiveLen returns the number of archived files.
func (m *Model) ArchiveLen() int {
	return len(m.archiveHashes)
}

// ExternalLen returns the number of external files.
func (m *Model) ExternalLen() int {
	return len(m.externalHashes)
}

// ChunkLen returns the number of chunks.
func (m *Model) ChunkLen() int {
	return len(m.chunks)
}

// ArchiveHashes returns a copy of the archive hash table.
func (m *Model) ArchiveHashes() []uint64 {
	return slices.Clone(m.archiveHashes)
}

// ExternalFiles returns a copy of the external table.
func (m *Model) ExternalFiles() []ExternalFile {
	out := make([]ExternalFile, len(m.externalHashes))
	for i, h := range m.externalHashes {
		out[i] = ExternalFile{Hash: h, Size: m.externalSizes[i]}
	}
	return out
}

// Clone returns a deep copy of m.
func (m *Model) Clone() *Model {
	return &Model{
		codename:       m.codename,
		numArchives:    m.numArchives,
		xxhashSeed:     m.xxhashSeed,
		chunks:         slices.Clone(m.chunks),
		cachedChunks:   slices.Clone(m.cachedChunks),
		archiveHashes:  slices.Clone(m.archiveHashes),
		indexers:       slices.Clone(m.indexers),
		externalHashes: slices.Clone(m.externalHashes),
		externalSizes:  slices.Clone(m.externalSizes),
	}
}

// Validate checks the table invariants: equal-length parallel tables,
// strictly ascending hashes and chunk references inside the chunk table.
func (m *Model) Validate() error {
	if len(m.archiveHashes) != len(m.indexers) {
		return fmt.Errorf("%w: %d archive hashes but %d chunk indexers",
			blobtype.ErrMalformedIndex, len(m.archiveHashes), len(m.indexers))
	}
	if len(m.externalHashes) != len(m.externalSizes) {
		return fmt.Errorf("%w: %d external hashes but %d external sizes",
			blobtype.ErrMalformedIndex, len(m.externalHashes), len(m.externalSizes))
	}
	if i := unsortedAt(m.archiveHashes); i >= 0 {
		return fmt.Errorf("%w: archive hashes not strictly ascending at %d", blobtype.ErrMalformedIndex, i)
	}
	if i := unsortedAt(m.externalHashes); i >= 0 {
		return fmt.Errorf("%w: external hashes not strictly ascending at %d", blobtype.ErrMalformedIndex, i)
	}
	for i, ix := range m.indexers {
		if ix.Empty() {
			continue
		}
		if ix.ChunkEntryIndex < 0 || int(ix.ChunkEntryIndex) >= len(m.chunks) {
			return fmt.Errorf("%w: file %d references chunk %d of %d",
				blobtype.ErrMalformedIndex, i, ix.ChunkEntryIndex, len(m.chunks))
		}
	}
	return nil
}

// unsortedAt returns the first position that is not greater than its
// predecessor, or -1.
func unsortedAt(hashes []uint64) int {
	for i := 1; i < len(hashes); i++ {
		if hashes[i] <= hashes[i-1] {
			return i
		}
	}
	return -1
}
