//go:build !linux

package videoenc

import (
	"fmt"

	"inkstream/internal/types"
)

// HWEncoder on non-Linux platforms always fails to initialize: the probe-
// and-select algorithm has no VAAPI/NVENC backend to try here. This keeps
// the module buildable everywhere while the real hardware path stays
// Linux-only, split by build tag like the rest of this package.
type HWEncoder struct {
	codec types.Codec
}

func NewHWEncoder() *HWEncoder { return &HWEncoder{} }

func (e *HWEncoder) Init(cfg types.EncoderConfig) error {
	return types.NewError(types.ErrResourceUnavailable, "videoenc.Init",
		fmt.Errorf("hardware video encoding is not supported on this platform"))
}

func (e *HWEncoder) Encode(frame types.RawFrame) (*types.EncodedVideo, error) {
	return nil, types.NewError(types.ErrEncode, "videoenc.Encode", fmt.Errorf("no encoder backend initialized"))
}

func (e *HWEncoder) RequestKeyframe()         {}
func (e *HWEncoder) ActualCodec() types.Codec { return e.codec }
func (e *HWEncoder) Close()                   {}
