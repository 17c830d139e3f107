//go:build windows

package render

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"veil/d3d"
)

// Renderer implements Backend over D3D11: a flip-model swapchain on the
// overlay window, the full-screen triangle pipeline, and either a dynamic
// upload texture (bytes transport) or an opened shared texture (texture
// transport).
type Renderer struct {
	dev      *d3d.Device
	swap     *d3d.SwapChain
	pipeline *d3d.Pipeline
	format   uint32

	dynamic *d3d.DynamicTexture
	shared  *d3d.BoundTexture
}

// NewRenderer creates the render device, swapchain and pipeline for hwnd.
func NewRenderer(hwnd uintptr, width, height int, format uint32) (*Renderer, error) {
	dev, err := d3d.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("create render device: %w", err)
	}
	swap, err := dev.NewSwapChain(hwnd, width, height, format)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("create swapchain: %w", err)
	}
	pipeline, err := dev.NewPipeline()
	if err != nil {
		swap.Close()
		dev.Close()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	return &Renderer{dev: dev, swap: swap, pipeline: pipeline, format: format}, nil
}

// Resize follows window size changes. Zero dimensions (minimize) are
// ignored; the swapchain keeps its last real size.
func (r *Renderer) Resize(width, height int) {
	if !ShouldResize(width, height, r.swap.Width(), r.swap.Height()) {
		return
	}
	if err := r.swap.Resize(width, height); err != nil {
		log.Errorf("Swapchain resize failed: %v", err)
	}
}

// UploadPixels implements Backend.
func (r *Renderer) UploadPixels(pix []byte, width, height int) error {
	if r.dynamic == nil || r.dynamic.Width != width || r.dynamic.Height != height {
		if r.dynamic != nil {
			r.dynamic.Close()
		}
		tex, err := r.dev.CreateDynamicTexture(width, height, r.format)
		if err != nil {
			r.dynamic = nil
			return err
		}
		r.dynamic = tex
	}
	if err := r.dev.UploadDynamic(r.dynamic, pix); err != nil {
		return err
	}
	r.draw(r.dynamic.SRV)
	return nil
}

// OpenShared implements Backend.
func (r *Renderer) OpenShared(handle uintptr, width, height int) error {
	tex, err := r.dev.OpenSharedTexture(handle)
	if err != nil {
		return err
	}
	if r.shared != nil {
		r.shared.Close()
	}
	r.shared = tex
	return nil
}

// TryAcquire implements Backend. Key 1 is the producer's release key;
// timeout 0 turns contention into an immediate skip.
func (r *Renderer) TryAcquire() (bool, error) {
	return d3d.AcquireKeyedMutex(r.shared.Mutex, 1, 0)
}

// DrawShared implements Backend.
func (r *Renderer) DrawShared() error {
	r.draw(r.shared.SRV)
	return nil
}

// Release implements Backend, handing the mutex back at key 0.
func (r *Renderer) Release() error {
	return d3d.ReleaseKeyedMutex(r.shared.Mutex, 0)
}

// Present implements Backend.
func (r *Renderer) Present() error {
	return r.swap.Present()
}

func (r *Renderer) draw(srv uintptr) {
	r.swap.Bind()
	r.dev.Bind(r.pipeline)
	r.dev.DrawTexture(srv)
}

func (r *Renderer) Close() {
	if r.shared != nil {
		r.shared.Close()
		r.shared = nil
	}
	if r.dynamic != nil {
		r.dynamic.Close()
		r.dynamic = nil
	}
	if r.pipeline != nil {
		r.pipeline.Close()
		r.pipeline = nil
	}
	if r.swap != nil {
		r.swap.Close()
		r.swap = nil
	}
	if r.dev != nil {
		r.dev.Close()
		r.dev = nil
	}
}
