package relink

import (
	"errors"

	"github.com/meigma/relink/internal/blobtype"
)

// Sentinel errors re-exported from internal/blobtype.
var (
	// ErrNotFound is returned when a path is not in the index or archive.
	ErrNotFound = blobtype.ErrNotFound

	// ErrMalformedIndex is returned when data.i cannot be decoded.
	ErrMalformedIndex = blobtype.ErrMalformedIndex

	// ErrCorruptArchive is returned when an archive chunk cannot be decoded.
	ErrCorruptArchive = blobtype.ErrCorruptArchive

	// ErrTransform is reported when an override file could not be converted.
	// Ingestion logs it and serves the original file instead.
	ErrTransform = blobtype.ErrTransform

	// ErrPermissionOrIO is returned when engine state cannot be read or written.
	ErrPermissionOrIO = blobtype.ErrPermissionOrIO

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = blobtype.ErrSizeOverflow
)

// Sentinel errors specific to the relink package.
var (
	// ErrMissingDataDir is returned when the game directory has no data directory.
	ErrMissingDataDir = errors.New("relink: game data directory missing")

	// ErrIndexModified is returned when the shipped data.i was already
	// rewritten by this engine and can no longer serve as a baseline.
	ErrIndexModified = errors.New("relink: index already modified")

	// ErrInvalidArgument is returned for empty source ids, paths or folders.
	ErrInvalidArgument = errors.New("relink: invalid argument")
)
