package capture

import (
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"veil/frame"
	"veil/util"
)

// TextureOps is the GPU surface behind the zero-copy producer. The windows
// implementation wraps the capture device's D3D11 resources; tests substitute
// a fake so the adapter's skip and republication behavior is exercised
// without a GPU.
type TextureOps interface {
	// EnsureShared (re)creates the published shared texture at the given
	// dimensions and returns its exported handle.
	EnsureShared(width, height int) (uintptr, error)

	// TryAcquire attempts to take the keyed mutex at the producer key.
	// False means the consumer is mid-draw.
	TryAcquire() (bool, error)

	// CopyFrom copies a delivered capture texture into the shared texture.
	// Called only between a successful TryAcquire and its Release.
	CopyFrom(tex uintptr)

	// Release hands the mutex to the consumer.
	Release() error

	Close()
}

// TextureAdapter is the producer side of the texture transport. Frames stay
// on the GPU: each delivered capture texture is copied into a keyed-mutex
// shared texture whose handle is published through the slot. Only the handle
// and dimensions cross the goroutine boundary.
//
// Handoff protocol: the producer acquires the mutex at key 0 and releases at
// key 1; the consumer acquires at 1 and releases at 0. A busy mutex means the
// consumer is mid-draw, and the frame is skipped rather than waited on.
// Per-frame GPU failures are skips too: the capture loop keeps running and the
// next delivery retries.
type TextureAdapter struct {
	ops   TextureOps
	slot  *frame.Slot
	first *util.Event

	bound  bool
	width  int
	height int

	published uint64
	skipped   uint64
}

// NewTextureAdapter creates the adapter. first may be nil; when set it fires
// on the first successful publication.
func NewTextureAdapter(ops TextureOps, slot *frame.Slot, first *util.Event) *TextureAdapter {
	return &TextureAdapter{ops: ops, slot: slot, first: first}
}

// OnFrame implements FrameFunc.
func (a *TextureAdapter) OnFrame(f *Frame) error {
	if f.Texture == 0 || f.Width <= 0 || f.Height <= 0 {
		a.skip("no_texture")
		return nil
	}

	if !a.bound || f.Width != a.width || f.Height != a.height {
		handle, err := a.ops.EnsureShared(f.Width, f.Height)
		if err != nil {
			// The tracked dimensions stay stale, so the next delivery
			// retries the creation.
			log.Warnf("Shared texture %dx%d unavailable: %v", f.Width, f.Height, err)
			a.skip("shared_create")
			return nil
		}
		a.bound = true
		a.width = f.Width
		a.height = f.Height
		a.slot.PublishHandle(handle, f.Width, f.Height)
		log.WithField("size", fmt.Sprintf("%dx%d", f.Width, f.Height)).Info("Shared texture published")
	}

	ok, err := a.ops.TryAcquire()
	if err != nil {
		log.Warnf("Producer acquire failed: %v", err)
		a.skip("mutex_error")
		return nil
	}
	if !ok {
		// Consumer holds the texture; drop this frame instead of blocking
		// the capture loop behind a slow draw.
		a.skip("mutex_busy")
		return nil
	}
	a.ops.CopyFrom(f.Texture)
	if err := a.ops.Release(); err != nil {
		// The copy landed but the consumer can never acquire it; do not
		// advertise a version nobody can draw.
		log.Warnf("Producer release failed: %v", err)
		a.skip("mutex_error")
		return nil
	}

	a.slot.Bump()
	atomic.AddUint64(&a.published, 1)
	framesCaptured.Inc()
	if a.first != nil {
		a.first.Notify()
	}
	return nil
}

func (a *TextureAdapter) skip(reason string) {
	atomic.AddUint64(&a.skipped, 1)
	captureSkips.WithLabelValues(reason).Inc()
}

// Published returns the number of frames published so far.
func (a *TextureAdapter) Published() uint64 {
	return atomic.LoadUint64(&a.published)
}

// Skipped returns the number of frames dropped without publication.
func (a *TextureAdapter) Skipped() uint64 {
	return atomic.LoadUint64(&a.skipped)
}

func (a *TextureAdapter) Close() {
	a.ops.Close()
}
