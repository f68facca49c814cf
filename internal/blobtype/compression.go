// Package blobtype defines shared types used across the relink package and its
// internal packages. This avoids circular imports between relink, the index
// model and the archive reader.
package blobtype

// Compression identifies how a chunk is stored inside an archive blob.
//
// The index does not record it explicitly: a chunk whose compressed size
// equals its decompressed size is stored raw.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}
