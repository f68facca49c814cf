package index

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/relink/internal/blobtype"
	"github.com/meigma/relink/internal/fb"
)

// Provenance classifies where an on-disk index came from.
type Provenance uint8

const (
	// ProvenanceUnknown is an index rewritten by another tool.
	ProvenanceUnknown Provenance = iota

	// ProvenancePristine is the index as shipped with the game.
	ProvenancePristine

	// ProvenanceModified is an index produced by Encode.
	ProvenanceModified
)

// String returns the human-readable provenance name.
func (p Provenance) String() string {
	switch p {
	case ProvenancePristine:
		return "pristine"
	case ProvenanceModified:
		return "modified"
	default:
		return "unknown"
	}
}

// LayoutHint returns the little-endian uint32 stored right after the root
// offset.
//
// The shipped index always has 0 here. Serializers that lay the vtable out
// directly after the root offset, including Encode, leave a non-zero value,
// which exposes rewritten indexes even when their codename was kept.
func LayoutHint(data []byte) (uint32, error) {
	if len(data) < minIndexSize {
		return 0, fmt.Errorf("%w: %d bytes is too short", blobtype.ErrMalformedIndex, len(data))
	}
	return binary.LittleEndian.Uint32(data[4:8]), nil
}

// Classify determines the provenance of an encoded index from its codename
// and layout hint.
func Classify(data []byte) (p Provenance, err error) {
	hint, err := LayoutHint(data)
	if err != nil {
		return ProvenanceUnknown, err
	}

	defer func() {
		if r := recover(); r != nil {
			p = ProvenanceUnknown
			err = fmt.Errorf("%w: %v", blobtype.ErrMalformedIndex, r)
		}
	}()
	codename := string(fb.GetRootAsIndexFile(data, 0).Codename())

	switch {
	case codename == ModdedCodename:
		return ProvenanceModified, nil
	case codename == OriginalCodename && hint == 0:
		return ProvenancePristine, nil
	default:
		return ProvenanceUnknown, nil
	}
}
