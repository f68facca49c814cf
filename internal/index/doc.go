// Package index provides the in-memory model of the game index (data.i) and
// its FlatBuffers codec.
//
// The index stores two independently sorted hash tables: archived files,
// resolved through a chunk table into the data.<N> archive blobs, and
// external files, which the game loads from loose files under data/. A hash
// present in the external table always takes precedence, so the model keeps
// each hash in at most one of the two tables.
package index
