// Package fileops provides atomic file replacement for engine state files.
package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temp file then renames to target,
// ensuring atomic replacement of the target file. Parent directories are
// created as needed.
func WriteFileAtomic(target string, data []byte) error {
	tmp, err := createTemp(target)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()        //nolint:errcheck // best-effort cleanup
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return err
	}
	return commit(tmp, target)
}

// StreamFileAtomic streams from r to a temp file then renames to target.
// It returns the number of bytes written.
func StreamFileAtomic(target string, r io.Reader) (int64, error) {
	tmp, err := createTemp(target)
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()        //nolint:errcheck // best-effort cleanup
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return 0, err
	}
	return n, commit(tmp, target)
}

func createTemp(target string) (*os.File, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	return os.CreateTemp(dir, ".relink-*")
}

func commit(tmp *os.File, target string) error {
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return err
	}
	return nil
}
