// Package filecache records which converted override files are still current.
//
// The registry maps a source id and a game path to the modification time of
// the loose file that produced it. A conversion can be skipped when the
// recorded time matches the file on disk. Entries are marked used as they are
// consulted or added; Save only writes used entries, so stale ones are
// dropped on the next run.
package filecache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/meigma/relink/internal/fileops"
)

const (
	// Header is the first line of a saved registry.
	Header = "// relink mod file cache"

	// TimeLayout is the timestamp format, day first, in local time.
	TimeLayout = "02/01/2006 15:04:05"
)

// Entry is one cached file.
type Entry struct {
	// Path is the game path with '/' separators.
	Path string

	// LastModified is the source file time, truncated to the second.
	LastModified time.Time

	// Used is set when the entry was consulted or produced in this run.
	Used bool
}

// Registry holds cached entries grouped by source id.
// A Registry is not safe for concurrent use.
type Registry struct {
	sources map[string]map[string]*Entry
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report malformed registry lines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{sources: make(map[string]map[string]*Entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// AddEntry records path for sourceID, replacing any previous entry, and
// returns it. The entry starts out unused.
func (r *Registry) AddEntry(sourceID, path string, lastModified time.Time) *Entry {
	path = normalize(path)
	files, ok := r.sources[sourceID]
	if !ok {
		files = make(map[string]*Entry)
		r.sources[sourceID] = files
	}
	e := &Entry{Path: path, LastModified: lastModified.Truncate(time.Second)}
	files[path] = e
	return e
}

// TryGetIfCurrent returns the entry for path when its recorded time equals
// lastModified at second precision.
func (r *Registry) TryGetIfCurrent(sourceID, path string, lastModified time.Time) (*Entry, bool) {
	e, ok := r.sources[sourceID][normalize(path)]
	if !ok || !e.LastModified.Equal(lastModified.Truncate(time.Second)) {
		return nil, false
	}
	return e, true
}

// Remove drops the entry for path under sourceID, if any.
func (r *Registry) Remove(sourceID, path string) {
	delete(r.sources[sourceID], normalize(path))
}

// Len returns the number of entries across all sources.
func (r *Registry) Len() int {
	n := 0
	for _, files := range r.sources {
		n += len(files)
	}
	return n
}

// Load reads entries from a saved registry. Blank lines and comments are
// ignored; malformed lines are skipped with a warning.
func (r *Registry) Load(rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	sourceID := ""
	haveSource := false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "//") {
			continue
		}

		parts := strings.Split(line, "|")
		switch parts[0] {
		case "mod_id":
			if len(parts) < 2 {
				r.log().Warn("malformed cache registry source line", "line", lineNo, "text", line)
				continue
			}
			sourceID = parts[1]
			haveSource = true
		case "file":
			if len(parts) < 3 || !haveSource {
				r.log().Warn("malformed cache registry file line", "line", lineNo, "text", line)
				continue
			}
			modified, err := time.ParseInLocation(TimeLayout, parts[2], time.Local)
			if err != nil {
				r.log().Warn("malformed cache registry timestamp", "line", lineNo, "text", line, "error", err)
				continue
			}
			r.AddEntry(sourceID, parts[1], modified)
		default:
			r.log().Warn("unknown cache registry record", "line", lineNo, "text", line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read cache registry: %w", err)
	}
	return nil
}

// LoadFile reads a registry from path.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // registry path is owned by the engine
	if err != nil {
		return fmt.Errorf("open cache registry: %w", err)
	}
	defer f.Close()
	return r.Load(f)
}

// Save writes the used entries, grouped by source id in sorted order.
// Sources without used entries are omitted.
func (r *Registry) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Header)

	for _, sourceID := range slices.Sorted(maps.Keys(r.sources)) {
		files := r.sources[sourceID]
		var used []*Entry
		for _, path := range slices.Sorted(maps.Keys(files)) {
			if e := files[path]; e.Used {
				used = append(used, e)
			}
		}
		if len(used) == 0 {
			continue
		}

		fmt.Fprintf(bw, "mod_id|%s\n", sourceID)
		for _, e := range used {
			fmt.Fprintf(bw, "file|%s|%s\n", e.Path, e.LastModified.In(time.Local).Format(TimeLayout))
		}
		fmt.Fprintln(bw)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write cache registry: %w", err)
	}
	return nil
}

// SaveFile atomically replaces path with the saved registry.
func (r *Registry) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return err
	}
	if err := fileops.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save cache registry: %w", err)
	}
	return nil
}

func normalize(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
