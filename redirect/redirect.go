// Package redirect models the filesystem redirection layer the engine feeds.
//
// The engine does not intercept file access itself. It reports every
// "serve this file instead" decision to a [Redirector]; the host loader
// applies them. [Table] is an in-memory implementation that can be saved as
// a YAML manifest for loaders that read redirects from disk.
package redirect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/meigma/relink/internal/fileops"
)

// Redirector receives path redirections.
type Redirector interface {
	// AddRedirect makes reads of from resolve to to. A later call for the
	// same from replaces the earlier one.
	AddRedirect(from, to string)
}

// Func adapts a function to the Redirector interface.
type Func func(from, to string)

// AddRedirect calls f(from, to).
func (f Func) AddRedirect(from, to string) {
	f(from, to)
}

// Discard is a Redirector that drops every redirect.
var Discard Redirector = Func(func(string, string) {})

// Table is an in-memory Redirector. It is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[string]string
}

// manifest is the YAML document written by WriteManifest.
type manifest struct {
	Redirects map[string]string `yaml:"redirects"`
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]string)}
}

// AddRedirect implements Redirector.
func (t *Table) AddRedirect(from, to string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[filepath.Clean(from)] = to
}

// Lookup returns the redirect target for from.
func (t *Table) Lookup(from string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	to, ok := t.entries[filepath.Clean(from)]
	return to, ok
}

// Len returns the number of redirects.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a copy of all redirects.
func (t *Table) Entries() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.entries)
}

// WriteManifest writes the table as YAML with keys in sorted order.
func (t *Table) WriteManifest(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(manifest{Redirects: t.Entries()}); err != nil {
		return fmt.Errorf("encode redirect manifest: %w", err)
	}
	return enc.Close()
}

// SaveManifest atomically writes the manifest to path.
func (t *Table) SaveManifest(path string) error {
	var buf bytes.Buffer
	if err := t.WriteManifest(&buf); err != nil {
		return err
	}
	if err := fileops.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save redirect manifest: %w", err)
	}
	return nil
}

// ReadManifest parses a manifest written by WriteManifest.
func ReadManifest(r io.Reader) (*Table, error) {
	var m manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode redirect manifest: %w", err)
	}
	t := NewTable()
	for from, to := range m.Redirects {
		t.AddRedirect(from, to)
	}
	return t, nil
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // manifest path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("open redirect manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}
