// Package archive reads archived game files out of the data.<N> blobs.
//
// Lookups always go through the pristine index: archive blobs never change
// on disk, so chunk offsets recorded by the shipped index stay valid no
// matter how the working index is modified.
package archive
