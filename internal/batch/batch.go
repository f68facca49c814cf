// Package batch extracts many archived files at once.
//
// Entries are grouped by the chunk that stores them so every chunk is read
// and decompressed once, however many of its files are requested.
package batch

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/relink/internal/blobtype"
	"github.com/meigma/relink/internal/sizing"
)

// parallelMinAvgBytes is the minimum average entry size to write entries in
// parallel. Below it serial writes are faster.
const parallelMinAvgBytes = 64 << 10

// Processor extracts entries from a chunk source into a sink.
type Processor struct {
	source  ChunkSource
	workers int // 0 = auto, <0 = serial, >0 = fixed count
	logger  *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of workers writing entries of one chunk.
// Values < 0 force serial processing. Zero uses automatic heuristics.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithLogger sets the logger for extraction progress.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a batch processor reading chunks from source.
func NewProcessor(source ChunkSource, opts ...ProcessorOption) *Processor {
	p := &Processor{source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// chunkGroup is the entries stored in one chunk.
type chunkGroup struct {
	chunk   int32
	entries []*Entry
}

// Process extracts entries into sink.
//
// Entries the sink declines are skipped. The rest are sorted by chunk and
// offset, and each chunk is loaded once. Zero-byte entries need no chunk.
// Processing stops on the first error.
func (p *Processor) Process(entries []*Entry, sink Sink) error {
	toProcess := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		if sink.ShouldProcess(entry) {
			toProcess = append(toProcess, entry)
		}
	}
	if len(toProcess) == 0 {
		return nil
	}

	slices.SortFunc(toProcess, func(a, b *Entry) int {
		if c := cmpInt(a.Location.ChunkEntryIndex, b.Location.ChunkEntryIndex); c != 0 {
			return c
		}
		return cmpInt(a.Location.OffsetIntoDecompressedChunk, b.Location.OffsetIntoDecompressedChunk)
	})

	for _, group := range groupByChunk(toProcess) {
		if err := p.processGroup(group, sink); err != nil {
			return err
		}
	}
	return nil
}

func cmpInt[T int32 | uint32](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func groupByChunk(sorted []*Entry) []chunkGroup {
	var groups []chunkGroup
	for _, entry := range sorted {
		i := entry.Location.ChunkEntryIndex
		if n := len(groups); n > 0 && groups[n-1].chunk == i {
			groups[n-1].entries = append(groups[n-1].entries, entry)
			continue
		}
		groups = append(groups, chunkGroup{chunk: i, entries: []*Entry{entry}})
	}
	return groups
}

// processGroup loads the group's chunk and writes each entry.
func (p *Processor) processGroup(group chunkGroup, sink Sink) error {
	var data []byte
	if group.chunk != blobtype.NoChunk {
		var err error
		data, err = p.source.Chunk(group.chunk)
		if err != nil {
			return fmt.Errorf("batch: chunk %d: %w", group.chunk, err)
		}
	}
	p.log().Debug("extracting chunk", "chunk", group.chunk, "files", len(group.entries))

	workers := p.workerCount(group.entries)
	if workers < 2 {
		return p.processEntriesSerial(group.entries, data, sink)
	}
	return p.processEntriesParallel(group.entries, data, sink, workers)
}

func (p *Processor) processEntriesSerial(entries []*Entry, data []byte, sink Sink) error {
	for _, entry := range entries {
		if err := p.processEntry(entry, data, sink); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processEntriesParallel(entries []*Entry, data []byte, sink Sink, workers int) error {
	var stop atomic.Bool
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < len(entries); i += workers {
				if stop.Load() {
					return
				}
				if err := p.processEntry(entries[i], data, sink); err != nil {
					if stop.CompareAndSwap(false, true) {
						errCh <- err
					}
					return
				}
			}
		}(w)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// processEntry slices one entry out of its chunk and writes it to the sink.
func (p *Processor) processEntry(entry *Entry, chunk []byte, sink Sink) error {
	content := []byte{}
	if !entry.Location.Empty() {
		start := uint64(entry.Location.OffsetIntoDecompressedChunk)
		end, ok := sizing.AddUint64(start, uint64(entry.Location.FileSize))
		if !ok || end > uint64(len(chunk)) {
			return fmt.Errorf("batch: %s: %w: range [%d, %d) outside chunk of %d bytes",
				entry.Path, blobtype.ErrCorruptArchive, start, end, len(chunk))
		}
		content = chunk[start:end]
	}

	w, err := sink.Writer(entry)
	if err != nil {
		return fmt.Errorf("batch: %s: %w", entry.Path, err)
	}
	if err := writeAll(w, content); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("batch: %s: %w", entry.Path, err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("batch: %s: commit: %w", entry.Path, err)
	}
	entry.Digest = digest.FromBytes(content)
	return nil
}

// workerCount determines the number of workers for one chunk's entries.
func (p *Processor) workerCount(entries []*Entry) int {
	if len(entries) < 2 || p.workers < 0 {
		return 1
	}

	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers < 2 {
			return 1
		}
		var total uint64
		for _, entry := range entries {
			next, ok := sizing.AddUint64(total, uint64(entry.Location.FileSize))
			if !ok {
				total = ^uint64(0)
				break
			}
			total = next
		}
		if total/uint64(len(entries)) < parallelMinAvgBytes {
			return 1
		}
	}

	return max(min(workers, len(entries)), 1)
}

func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}
