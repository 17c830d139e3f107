package capture

import "context"

// Frame is one delivered capture frame. It is only valid for the duration of
// the callback; sources reuse the backing memory or GPU surface for the next
// frame, so the consumer must finish its copy before returning.
type Frame struct {
	Width  int
	Height int

	// Pix is the pixel view for CPU sources: Height rows of Stride bytes, of
	// which the first Width*4 are meaningful. Nil for texture frames.
	Pix    []byte
	Stride int

	// Texture is the delivered ID3D11Texture2D for GPU sources, owned by the
	// source's D3D device. Zero for pixel frames.
	Texture uintptr
}

// FrameFunc consumes one frame. Returning an error aborts the source's run
// loop; per-frame problems are handled by skipping inside the callback.
type FrameFunc func(*Frame) error

// Source is a stream of display frames, such as a DXGI output duplication or
// a screenshot polling loop. Run blocks, invoking fn once per delivered frame
// until ctx is cancelled or the source fails fatally.
type Source interface {
	Run(ctx context.Context, fn FrameFunc) error

	// Size returns the source resolution as known at startup. Sources may
	// still deliver frames with different dimensions after a display mode
	// change; consumers follow the per-frame dimensions.
	Size() (int, int)

	Name() string
	Close()
}
