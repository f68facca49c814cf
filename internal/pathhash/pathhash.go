// Package pathhash computes the 64-bit lookup keys stored in the game index.
//
// Keys are XXH64 (seed 0) digests of the normalized path, read as a
// big-endian integer. They are persisted in data.i, so the normalization and
// the hash function must never change.
package pathhash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Normalize converts a game path to its canonical hashed form: forward
// slashes and lower case.
func Normalize(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
}

// Hash returns the index key for path.
//
// xxhash.Sum64String returns the digest as an integer, which is the same
// value as reading the canonical big-endian digest bytes.
func Hash(path string) uint64 {
	return xxhash.Sum64String(Normalize(path))
}
