package blobtype

import "errors"

// Sentinel errors for index and archive operations.
var (
	// ErrNotFound is returned when a path is not present in the index or archive.
	ErrNotFound = errors.New("relink: file not found")

	// ErrMalformedIndex is returned when an index buffer cannot be decoded.
	ErrMalformedIndex = errors.New("relink: malformed index")

	// ErrCorruptArchive is returned when a chunk cannot be decompressed to its
	// recorded size or a file range falls outside its chunk.
	ErrCorruptArchive = errors.New("relink: corrupt archive chunk")

	// ErrTransform is returned by content transforms that could not convert a file.
	ErrTransform = errors.New("relink: transform failed")

	// ErrPermissionOrIO is returned when engine state directories or files
	// cannot be created, copied or written.
	ErrPermissionOrIO = errors.New("relink: permission or i/o failure")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("relink: size overflow")
)
