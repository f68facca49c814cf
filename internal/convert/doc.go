// Package convert turns loose override files into the formats the game reads.
//
// Each converter takes the source bytes and returns the converted bytes or
// an error wrapping blobtype.ErrTransform. Converters never touch the
// filesystem; callers decide where results are written.
package convert
