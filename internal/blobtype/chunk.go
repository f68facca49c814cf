package blobtype

// NoChunk is the chunk index recorded for zero-byte files.
const NoChunk int32 = -1

// FileToChunkIndexer locates one archived file inside a decompressed chunk.
type FileToChunkIndexer struct {
	// ChunkEntryIndex indexes into the chunk table, or NoChunk.
	ChunkEntryIndex int32

	// FileSize is the decompressed file length in bytes.
	FileSize uint32

	// OffsetIntoDecompressedChunk is where the file starts in the decompressed chunk.
	OffsetIntoDecompressedChunk uint32
}

// Empty reports whether the indexer describes a zero-byte file.
func (f FileToChunkIndexer) Empty() bool {
	return f.ChunkEntryIndex == NoChunk
}

// DataChunk describes one back-to-back block inside an archive blob.
type DataChunk struct {
	// FileOffset is the byte offset of the chunk within data.<DataFileNumber>.
	FileOffset uint64

	// Size is the stored (compressed) size.
	Size uint32

	// UncompressedSize is the size after decompression.
	UncompressedSize uint32

	// AllocAlignment is carried through from the shipped index unchanged.
	AllocAlignment uint8

	// UnkBool is carried through from the shipped index unchanged.
	UnkBool bool

	// DataFileNumber selects the archive blob file.
	DataFileNumber uint8
}

// Compression returns how the chunk is stored.
func (c DataChunk) Compression() Compression {
	if c.Size == c.UncompressedSize {
		return CompressionNone
	}
	return CompressionLZ4
}
