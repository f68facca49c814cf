package relink

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/relink/internal/batch"
)

// ExtractedFile describes a file written by ExtractArchiveFiles.
type ExtractedFile struct {
	Path   string
	Size   uint32
	Digest digest.Digest

	// Skipped is set when the file already existed and was left alone.
	Skipped bool
}

// ExtractOption configures ExtractArchiveFiles.
type ExtractOption func(*extractOptions)

type extractOptions struct {
	overwrite bool
	workers   int
}

// WithOverwrite replaces files that already exist in the destination.
func WithOverwrite(overwrite bool) ExtractOption {
	return func(o *extractOptions) {
		o.overwrite = overwrite
	}
}

// WithWorkers sets how many files of one chunk are written concurrently.
// Negative values write serially; zero picks a count from the file sizes.
func WithWorkers(n int) ExtractOption {
	return func(o *extractOptions) {
		o.workers = n
	}
}

// ExtractArchiveFiles writes the shipped content of paths below destDir,
// ignoring overrides. Files sharing a chunk are extracted from a single
// decompression of it. Results are returned in the order of paths.
func (e *Engine) ExtractArchiveFiles(destDir string, paths []string, opts ...ExtractOption) ([]ExtractedFile, error) {
	e.checkInitialized()

	var o extractOptions
	for _, opt := range opts {
		opt(&o)
	}

	r, err := e.archiveReader()
	if err != nil {
		return nil, err
	}

	entries := make([]*batch.Entry, 0, len(paths))
	for _, p := range paths {
		loc, err := r.Locate(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &batch.Entry{Path: p, Location: loc})
	}

	proc := batch.NewProcessor(r, batch.WithWorkers(o.workers), batch.WithLogger(e.log()))
	if err := proc.Process(entries, batch.NewFileSink(destDir, batch.WithOverwrite(o.overwrite))); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	out := make([]ExtractedFile, len(entries))
	var total uint64
	for i, entry := range entries {
		out[i] = ExtractedFile{
			Path:    entry.Path,
			Size:    entry.Location.FileSize,
			Digest:  entry.Digest,
			Skipped: entry.Digest == "",
		}
		if !out[i].Skipped {
			total += uint64(entry.Location.FileSize)
		}
	}
	e.log().Info("extracted archive files", "files", len(out), "dest", destDir, "size", humanize.Bytes(total))
	return out, nil
}
