package convert

import (
	"bytes"
	"fmt"

	"github.com/meigma/relink/internal/blobtype"
	"github.com/meigma/relink/internal/fb"
)

const (
	// ModelInfoMinMagic is the oldest model-info build the current game
	// renders. Older files are patched.
	ModelInfoMinMagic = 20240213

	// ModelInfoCompatMagic is written into outdated model-info files.
	ModelInfoCompatMagic = 10000101
)

// UpgradeModelInfo rewrites the magic of an outdated model-info buffer.
//
// It returns the input unchanged and false when the magic is already
// current. The magic is patched in place on a copy, so every other field
// keeps its exact encoding.
func UpgradeModelInfo(data []byte) (out []byte, upgraded bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, upgraded = nil, false
			err = fmt.Errorf("%w: model info: %v", blobtype.ErrTransform, r)
		}
	}()
	if len(data) < 8 {
		return nil, false, fmt.Errorf("%w: model info: %d bytes is too short", blobtype.ErrTransform, len(data))
	}

	magic := fb.GetRootAsModelInfo(data, 0).Magic()
	if magic >= ModelInfoMinMagic {
		return data, false, nil
	}

	out = bytes.Clone(data)
	if !fb.GetRootAsModelInfo(out, 0).MutateMagic(ModelInfoCompatMagic) {
		return nil, false, fmt.Errorf("%w: model info: magic field not stored", blobtype.ErrTransform)
	}
	return out, true, nil
}
