package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/relink/internal/blobtype"
	"github.com/meigma/relink/internal/index"
	"github.com/meigma/relink/internal/pathhash"
	"github.com/meigma/relink/internal/sizing"
)

// maxBlockRatio bounds the uncompressed size of an LZ4 block relative to its
// compressed size.
const maxBlockRatio = 255

// DefaultChunkCacheSize is the default number of decompressed chunks kept in memory.
const DefaultChunkCacheSize = 16

// Decompressor decompresses a block into dst and returns the number of
// bytes written.
type Decompressor func(src, dst []byte) (int, error)

// LZ4Decompress decompresses a raw LZ4 block.
func LZ4Decompress(src, dst []byte) (int, error) {
	return lz4.UncompressBlock(src, dst)
}

// Reader extracts archived files from the data.<N> blobs in a directory.
//
// Blob files are opened on first use and kept open until Close. Reader is
// not safe for concurrent use.
type Reader struct {
	dir        string
	idx        *index.Model
	streams    []*os.File
	sizes      []int64 // blob sizes, parallel to streams
	chunks     *lru.Cache[int32, []byte] // nil = no caching
	cacheSize  int
	decompress Decompressor
	logger     *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithChunkCacheSize sets how many decompressed chunks are kept in memory.
// Many small files share one chunk, so reading neighbours hits the cache.
// Use 0 to disable caching.
func WithChunkCacheSize(n int) Option {
	return func(r *Reader) {
		if n < 0 {
			n = 0
		}
		r.cacheSize = n
	}
}

// WithDecompressor replaces the block decompressor (default: LZ4Decompress).
func WithDecompressor(d Decompressor) Option {
	return func(r *Reader) {
		r.decompress = d
	}
}

// WithLogger sets the logger for chunk activity.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// Open creates a Reader for the archive blobs in dir described by the
// pristine index. No blob file is opened until it is needed.
func Open(dir string, pristine *index.Model, opts ...Option) (*Reader, error) {
	r := &Reader{
		dir:        dir,
		idx:        pristine,
		streams:    make([]*os.File, pristine.NumArchives()),
		sizes:      make([]int64, pristine.NumArchives()),
		cacheSize:  DefaultChunkCacheSize,
		decompress: LZ4Decompress,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cacheSize > 0 {
		cache, err := lru.New[int32, []byte](r.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create chunk cache: %w", err)
		}
		r.chunks = cache
	}
	return r, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// ReadFile returns the content of an archived file.
//
// It returns an error wrapping blobtype.ErrNotFound when path is not in the
// pristine index and blobtype.ErrCorruptArchive when its chunk cannot be
// decoded. Zero-byte files return an empty, non-nil slice.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	data, err := r.ReadHash(pathhash.Hash(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ReadHash returns the content of the archived file with the given key.
func (r *Reader) ReadHash(hash uint64) ([]byte, error) {
	ix, ok := r.idx.LookupArchive(hash)
	if !ok {
		return nil, blobtype.ErrNotFound
	}
	if ix.Empty() {
		return []byte{}, nil
	}

	chunk, err := r.chunk(ix.ChunkEntryIndex)
	if err != nil {
		return nil, err
	}

	start := uint64(ix.OffsetIntoDecompressedChunk)
	end, ok := sizing.AddUint64(start, uint64(ix.FileSize))
	if !ok || end > uint64(len(chunk)) {
		return nil, fmt.Errorf("%w: file range [%d, %d) outside chunk %d of %d bytes",
			blobtype.ErrCorruptArchive, start, end, ix.ChunkEntryIndex, len(chunk))
	}
	return bytes.Clone(chunk[start:end]), nil
}

// Locate returns where an archived file is stored.
func (r *Reader) Locate(path string) (blobtype.FileToChunkIndexer, error) {
	ix, ok := r.idx.LookupArchive(pathhash.Hash(path))
	if !ok {
		return blobtype.FileToChunkIndexer{}, fmt.Errorf("locate %s: %w", path, blobtype.ErrNotFound)
	}
	return ix, nil
}

// Chunk returns the decompressed contents of chunk i. The slice may be
// shared with the chunk cache and must not be modified.
func (r *Reader) Chunk(i int32) ([]byte, error) {
	return r.chunk(i)
}

// chunk returns the decompressed contents of chunk i.
// The returned slice may be shared with the cache and must not be modified.
func (r *Reader) chunk(i int32) ([]byte, error) {
	if r.chunks != nil {
		if data, ok := r.chunks.Get(i); ok {
			r.log().Debug("chunk cache hit", "chunk", i)
			return data, nil
		}
	}

	desc, ok := r.idx.Chunk(int(i))
	if !ok {
		return nil, fmt.Errorf("%w: chunk %d not in index", blobtype.ErrCorruptArchive, i)
	}

	stream, blobSize, err := r.stream(desc.DataFileNumber)
	if err != nil {
		return nil, err
	}

	if end, ok := sizing.AddUint64(desc.FileOffset, uint64(desc.Size)); !ok || end > uint64(blobSize) {
		return nil, fmt.Errorf("%w: chunk %d range [%d, +%d) outside data.%d of %d bytes",
			blobtype.ErrCorruptArchive, i, desc.FileOffset, desc.Size, desc.DataFileNumber, blobSize)
	}
	if desc.Compression() != blobtype.CompressionNone &&
		uint64(desc.UncompressedSize) > uint64(desc.Size)*maxBlockRatio {
		return nil, fmt.Errorf("%w: chunk %d claims %d bytes from a %d byte block",
			blobtype.ErrCorruptArchive, i, desc.UncompressedSize, desc.Size)
	}
	offset, err := sizing.ToInt64(desc.FileOffset, blobtype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, desc.Size)
	if n, err := stream.ReadAt(raw, offset); err != nil && !(errors.Is(err, io.EOF) && n == len(raw)) {
		return nil, fmt.Errorf("%w: chunk %d: short read (%d of %d bytes): %v",
			blobtype.ErrCorruptArchive, i, n, len(raw), err)
	}

	data := raw
	if desc.Compression() != blobtype.CompressionNone {
		data = make([]byte, desc.UncompressedSize)
		n, err := r.decompress(raw, data)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", blobtype.ErrCorruptArchive, i, err)
		}
		if n != len(data) {
			return nil, fmt.Errorf("%w: chunk %d decompressed to %d of %d bytes",
				blobtype.ErrCorruptArchive, i, n, len(data))
		}
	}

	r.log().Debug("chunk loaded", "chunk", i, "archive", desc.DataFileNumber,
		"compression", desc.Compression().String(), "size", len(data))
	if r.chunks != nil {
		r.chunks.Add(i, data)
	}
	return data, nil
}

// stream returns the open blob file for archive n and its size, opening it
// on first use.
func (r *Reader) stream(n uint8) (*os.File, int64, error) {
	if int(n) >= len(r.streams) {
		return nil, 0, fmt.Errorf("%w: data file %d above number of archives (%d)",
			blobtype.ErrCorruptArchive, n, len(r.streams))
	}
	if f := r.streams[n]; f != nil {
		return f, r.sizes[n], nil
	}

	path := filepath.Join(r.dir, "data."+strconv.Itoa(int(n)))
	f, err := os.Open(path) //nolint:gosec // archive path is derived from the game directory
	if err != nil {
		return nil, 0, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, 0, fmt.Errorf("stat archive: %w", err)
	}
	r.log().Debug("opened archive", "path", path, "size", info.Size())
	r.streams[n] = f
	r.sizes[n] = info.Size()
	return f, info.Size(), nil
}

// Close closes every archive blob opened so far and drops cached chunks.
func (r *Reader) Close() error {
	var errs []error
	for i, f := range r.streams {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close data.%d: %w", i, err))
		}
		r.streams[i] = nil
	}
	if r.chunks != nil {
		r.chunks.Purge()
	}
	return errors.Join(errs...)
}
