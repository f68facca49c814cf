// Package pathutil converts between game paths and file system paths.
//
// Game paths are '/'-separated and relative to the game's data directory.
// Loaders also pass '\'-separated paths and paths with a leading separator.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Clean converts separators to '/' and strips leading separators. Case and
// "." or ".." elements are preserved.
func Clean(gamePath string) string {
	return strings.TrimLeft(strings.ReplaceAll(gamePath, "\\", "/"), "/")
}

// ToOS returns the game path as a relative OS path.
func ToOS(gamePath string) string {
	return filepath.FromSlash(Clean(gamePath))
}

// Local returns the game path as a relative OS path that stays below the
// directory it is joined to.
func Local(gamePath string) (string, error) {
	p := ToOS(gamePath)
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("game path %q escapes its root", gamePath)
	}
	return p, nil
}
