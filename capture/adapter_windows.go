//go:build windows

package capture

import (
	"fmt"

	"veil/d3d"
)

// sharedTextureOps implements TextureOps over the capture device. The shared
// texture is created with the duplicated output's format, not the configured
// color format: CopyResource requires source and destination formats to be
// identical, and the output decides what it delivers (BGRA8 normally, float16
// on HDR desktops).
type sharedTextureOps struct {
	dev    *d3d.Device
	format uint32
	tex    *d3d.SharedTexture
}

// NewSharedTextureOps creates the GPU side of the zero-copy producer. dev
// must be the device that owns the delivered capture textures; format must be
// the duplication output's frame format.
func NewSharedTextureOps(dev *d3d.Device, format uint32) TextureOps {
	return &sharedTextureOps{dev: dev, format: format}
}

func (o *sharedTextureOps) EnsureShared(width, height int) (uintptr, error) {
	tex, err := o.dev.CreateSharedTexture(width, height, o.format)
	if err != nil {
		return 0, fmt.Errorf("create shared texture %dx%d: %w", width, height, err)
	}
	if o.tex != nil {
		// The consumer's opened instance holds its own reference; dropping
		// ours does not invalidate it.
		o.tex.Close()
	}
	o.tex = tex
	return tex.Handle, nil
}

func (o *sharedTextureOps) TryAcquire() (bool, error) {
	return d3d.AcquireKeyedMutex(o.tex.Mutex, 0, 0)
}

func (o *sharedTextureOps) CopyFrom(tex uintptr) {
	o.dev.CopyResource(o.tex.Texture, tex)
}

func (o *sharedTextureOps) Release() error {
	return d3d.ReleaseKeyedMutex(o.tex.Mutex, 1)
}

func (o *sharedTextureOps) Close() {
	if o.tex != nil {
		o.tex.Close()
		o.tex = nil
	}
}
