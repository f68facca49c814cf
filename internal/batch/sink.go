package batch

import (
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/relink/internal/blobtype"
)

// Entry is one archived file to extract.
type Entry struct {
	// Path is the game path the file was requested under.
	Path string

	// Location is where the file is stored in the archive blobs.
	Location blobtype.FileToChunkIndexer

	// Digest is the sha256 digest of the content, set once the entry has
	// been written.
	Digest digest.Digest
}

// Sink receives extracted file contents.
type Sink interface {
	// ShouldProcess reports whether entry needs to be extracted.
	ShouldProcess(entry *Entry) bool

	// Writer returns a writer for the content of entry.
	Writer(entry *Entry) (Committer, error)
}

// Committer is a writer whose content only becomes visible on Commit.
type Committer interface {
	io.Writer

	// Commit makes the written content visible.
	Commit() error

	// Discard drops the written content.
	Discard() error
}

// ChunkSource provides decompressed archive chunks.
type ChunkSource interface {
	// Chunk returns decompressed chunk i. The slice must not be modified.
	Chunk(i int32) ([]byte, error)
}
