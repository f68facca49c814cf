package index

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/relink/internal/blobtype"
	"github.com/meigma/relink/internal/fb"
)

// minIndexSize is the smallest buffer that can hold a root offset and a table.
const minIndexSize = 8

// Decode parses a FlatBuffers-encoded index into a Model.
//
// The returned Model does not alias data. Buffers that cannot be parsed or
// whose tables violate the index invariants fail with ErrMalformedIndex.
func Decode(data []byte) (m *Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("%w: %v", blobtype.ErrMalformedIndex, r)
		}
	}()
	if len(data) < minIndexSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", blobtype.ErrMalformedIndex, len(data))
	}
	rootOffset := flatbuffers.GetUOffsetT(data)
	if int(rootOffset) >= len(data)-4 {
		return nil, fmt.Errorf("%w: root offset %d out of range", blobtype.ErrMalformedIndex, rootOffset)
	}

	root := fb.GetRootAsIndexFile(data, 0)
	m = &Model{
		codename:    string(root.Codename()),
		numArchives: root.NumArchives(),
		xxhashSeed:  root.XxhashSeed(),
	}

	tab := root.Table()
	var lens [6]int
	for i, v := range indexVectors {
		if lens[i], err = vectorLen(&tab, v.slot, v.elemSize); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", blobtype.ErrMalformedIndex, v.name, err)
		}
	}

	m.archiveHashes = make([]uint64, lens[0])
	for i := range m.archiveHashes {
		m.archiveHashes[i] = root.ArchiveFileHashes(i)
	}

	var ix fb.FileToChunkIndexer
	m.indexers = make([]blobtype.FileToChunkIndexer, lens[1])
	for i := range m.indexers {
		if !root.FileToChunkIndexers(&ix, i) {
			return nil, fmt.Errorf("%w: missing chunk indexer table", blobtype.ErrMalformedIndex)
		}
		m.indexers[i] = blobtype.FileToChunkIndexer{
			ChunkEntryIndex:             ix.ChunkEntryIndex(),
			FileSize:                    ix.FileSize(),
			OffsetIntoDecompressedChunk: ix.OffsetIntoDecompressedChunk(),
		}
	}

	var chunk fb.DataChunk
	m.chunks = make([]blobtype.DataChunk, lens[2])
	for i := range m.chunks {
		if !root.Chunks(&chunk, i) {
			return nil, fmt.Errorf("%w: missing chunk table", blobtype.ErrMalformedIndex)
		}
		m.chunks[i] = blobtype.DataChunk{
			FileOffset:       chunk.FileOffset(),
			Size:             chunk.Size(),
			UncompressedSize: chunk.UncompressedSize(),
			AllocAlignment:   chunk.AllocAlignment(),
			UnkBool:          chunk.UnkBool(),
			DataFileNumber:   chunk.DataFileNumber(),
		}
	}

	m.externalHashes = make([]uint64, lens[3])
	for i := range m.externalHashes {
		m.externalHashes[i] = root.ExternalFileHashes(i)
	}
	m.externalSizes = make([]uint64, lens[4])
	for i := range m.externalSizes {
		m.externalSizes[i] = root.ExternalFileSizes(i)
	}
	m.cachedChunks = make([]uint32, lens[5])
	for i := range m.cachedChunks {
		m.cachedChunks[i] = root.CachedChunkIndices(i)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// indexVectors lists the vector slots of IndexFile with their element sizes,
// in the order Decode reads them.
var indexVectors = [6]struct {
	name     string
	slot     flatbuffers.VOffsetT
	elemSize int
}{
	{"archive_file_hashes", 10, 8},
	{"file_to_chunk_indexers", 12, 12},
	{"chunks", 14, 24},
	{"external_file_hashes", 16, 8},
	{"external_file_sizes", 18, 8},
	{"cached_chunk_indices", 20, 4},
}

// vectorLen returns the length of the vector in slot after checking that
// its elements fit in the buffer.
func vectorLen(tab *flatbuffers.Table, slot flatbuffers.VOffsetT, elemSize int) (int, error) {
	o := flatbuffers.UOffsetT(tab.Offset(slot))
	if o == 0 {
		return 0, nil
	}
	if int(tab.Pos)+int(o)+flatbuffers.SizeUOffsetT > len(tab.Bytes) {
		return 0, fmt.Errorf("vector offset %d out of range", o)
	}
	start := int(tab.Vector(o))
	if start > len(tab.Bytes) {
		return 0, fmt.Errorf("vector starts at %d beyond %d bytes", start, len(tab.Bytes))
	}
	n := tab.VectorLen(o)
	if n < 0 || n > (len(tab.Bytes)-start)/elemSize {
		return 0, fmt.Errorf("%d elements do not fit in %d bytes", n, len(tab.Bytes)-start)
	}
	return n, nil
}

// Encode serializes m to the FlatBuffers index format.
//
// Encode stamps m with ModdedCodename before serializing so later loads can
// tell engine-produced indexes apart from shipped ones.
func Encode(m *Model) []byte {
	m.codename = ModdedCodename
	return Marshal(m)
}

// Marshal serializes m without touching its codename.
//
// The layout hint of the result is always non-zero. The builder may place
// alignment padding right after the root offset; when that happens the
// table is rebuilt 4 bytes further so the vtable header lands there instead.
func Marshal(m *Model) []byte {
	data := build(m, 0)
	if hint, _ := LayoutHint(data); hint == 0 {
		data = build(m, 4)
	}
	return data
}

func build(m *Model, pad int) []byte {
	builder := flatbuffers.NewBuilder(1024 + 8*(len(m.archiveHashes)+2*len(m.externalHashes)) +
		12*len(m.indexers) + 24*len(m.chunks))

	codename := builder.CreateString(m.codename)

	// Vectors are built back to front (FlatBuffers requirement)
	fb.IndexFileStartArchiveFileHashesVector(builder, len(m.archiveHashes))
	for i := len(m.archiveHashes) - 1; i >= 0; i-- {
		builder.PrependUint64(m.archiveHashes[i])
	}
	archiveHashes := builder.EndVector(len(m.archiveHashes))

	fb.IndexFileStartFileToChunkIndexersVector(builder, len(m.indexers))
	for i := len(m.indexers) - 1; i >= 0; i-- {
		ix := m.indexers[i]
		fb.CreateFileToChunkIndexer(builder, ix.ChunkEntryIndex, ix.FileSize, ix.OffsetIntoDecompressedChunk)
	}
	indexers := builder.EndVector(len(m.indexers))

	fb.IndexFileStartChunksVector(builder, len(m.chunks))
	for i := len(m.chunks) - 1; i >= 0; i-- {
		c := m.chunks[i]
		fb.CreateDataChunk(builder, c.FileOffset, c.Size, c.UncompressedSize, c.AllocAlignment, c.UnkBool, c.DataFileNumber)
	}
	chunks := builder.EndVector(len(m.chunks))

	fb.IndexFileStartExternalFileHashesVector(builder, len(m.externalHashes))
	for i := len(m.externalHashes) - 1; i >= 0; i-- {
		builder.PrependUint64(m.externalHashes[i])
	}
	externalHashes := builder.EndVector(len(m.externalHashes))

	fb.IndexFileStartExternalFileSizesVector(builder, len(m.externalSizes))
	for i := len(m.externalSizes) - 1; i >= 0; i-- {
		builder.PrependUint64(m.externalSizes[i])
	}
	externalSizes := builder.EndVector(len(m.externalSizes))

	fb.IndexFileStartCachedChunkIndicesVector(builder, len(m.cachedChunks))
	for i := len(m.cachedChunks) - 1; i >= 0; i-- {
		builder.PrependUint32(m.cachedChunks[i])
	}
	cachedChunks := builder.EndVector(len(m.cachedChunks))

	if pad > 0 {
		builder.Pad(pad)
	}

	fb.IndexFileStart(builder)
	fb.IndexFileAddCodename(builder, codename)
	fb.IndexFileAddNumArchives(builder, m.numArchives)
	fb.IndexFileAddXxhashSeed(builder, m.xxhashSeed)
	fb.IndexFileAddArchiveFileHashes(builder, archiveHashes)
	fb.IndexFileAddFileToChunkIndexers(builder, indexers)
	fb.IndexFileAddChunks(builder, chunks)
	fb.IndexFileAddExternalFileHashes(builder, externalHashes)
	fb.IndexFileAddExternalFileSizes(builder, externalSizes)
	fb.IndexFileAddCachedChunkIndices(builder, cachedChunks)
	root := fb.IndexFileEnd(builder)

	fb.FinishIndexFileBuffer(builder, root)
	return builder.FinishedBytes()
}
