package render

import (
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"veil/config"
	"veil/frame"
)

// Backend is the GPU surface the consumer draws through. The Windows
// implementation wraps D3D11; tests substitute a fake so the tick logic is
// exercised without a GPU.
type Backend interface {
	// UploadPixels uploads a tightly packed pixel buffer, (re)creating the
	// backing texture when dimensions change, and draws it.
	UploadPixels(pix []byte, width, height int) error

	// OpenShared binds the shared texture behind handle for sampling,
	// replacing any previous binding.
	OpenShared(handle uintptr, width, height int) error

	// TryAcquire attempts to take the bound shared texture's keyed mutex.
	// False means the producer holds it and the tick should skip.
	TryAcquire() (bool, error)

	// DrawShared draws the currently bound shared texture. Called only
	// between a successful TryAcquire and its Release.
	DrawShared() error

	// Release hands the keyed mutex back to the producer.
	Release() error

	// Present flips the drawn frame to the window.
	Present() error
}

// Consumer runs the per-tick side of the frame handoff: peek at the slot,
// decide, draw. One Consumer is driven by the window message loop on the
// render thread.
type Consumer struct {
	slot      *frame.Slot
	backend   Backend
	transport string

	lastDrawn uint64
	local     []byte

	boundHandle uintptr
	boundW      int
	boundH      int

	drawn   uint64
	skipped uint64
}

func NewConsumer(slot *frame.Slot, backend Backend, transport string) *Consumer {
	return &Consumer{slot: slot, backend: backend, transport: transport}
}

// Tick runs one iteration of the render loop. It reports whether a frame was
// drawn and presented.
func (c *Consumer) Tick() (bool, error) {
	snap := c.slot.Snapshot()
	switch Decide(snap, c.lastDrawn) {
	case SkipEmpty:
		c.skip("empty")
		return false, nil
	case SkipSeen:
		c.skip("seen")
		return false, nil
	}

	if c.transport == config.TransportTexture {
		return c.tickTexture(snap)
	}
	return c.tickBytes(snap)
}

func (c *Consumer) tickBytes(snap frame.Snapshot) (bool, error) {
	// Copy under the slot lock; the version that comes back with the bytes
	// is the one we record, not the possibly stale snapshot version.
	pix, w, h, version, ok := c.slot.CopyPixels(c.local)
	c.local = pix
	if !ok {
		c.skip("empty")
		return false, nil
	}
	if len(pix) != w*h*4 {
		// A mismatched payload never leaves the slot's critical section, so
		// this indicates a producer bug. Skip without consuming: the version
		// stays unseen and the next good publication gets drawn.
		log.Warnf("Frame payload %d bytes for %dx%d, dropping", len(pix), w, h)
		c.skip("bad_payload")
		return false, nil
	}

	if err := c.backend.UploadPixels(pix, w, h); err != nil {
		return false, fmt.Errorf("upload %dx%d: %w", w, h, err)
	}
	if err := c.backend.Present(); err != nil {
		return false, err
	}
	atomic.StoreUint64(&c.lastDrawn, version)
	atomic.AddUint64(&c.drawn, 1)
	framesDrawn.Inc()
	return true, nil
}

func (c *Consumer) tickTexture(snap frame.Snapshot) (bool, error) {
	if NeedsRebind(snap, c.boundHandle, c.boundW, c.boundH) {
		if err := c.backend.OpenShared(snap.Handle, snap.Width, snap.Height); err != nil {
			return false, fmt.Errorf("open shared texture: %w", err)
		}
		c.boundHandle = snap.Handle
		c.boundW = snap.Width
		c.boundH = snap.Height
		log.WithField("size", fmt.Sprintf("%dx%d", snap.Width, snap.Height)).Info("Bound shared texture")
	}

	ok, err := c.backend.TryAcquire()
	if err != nil {
		return false, fmt.Errorf("consumer acquire: %w", err)
	}
	if !ok {
		// Producer mid-copy. Leave lastDrawn alone so the version is retried
		// next tick.
		c.skip("mutex_busy")
		return false, nil
	}
	drawErr := c.backend.DrawShared()
	if err := c.backend.Release(); err != nil {
		return false, fmt.Errorf("consumer release: %w", err)
	}
	if drawErr != nil {
		return false, drawErr
	}
	if err := c.backend.Present(); err != nil {
		return false, err
	}
	atomic.StoreUint64(&c.lastDrawn, snap.Version)
	atomic.AddUint64(&c.drawn, 1)
	framesDrawn.Inc()
	return true, nil
}

func (c *Consumer) skip(reason string) {
	atomic.AddUint64(&c.skipped, 1)
	renderSkips.WithLabelValues(reason).Inc()
}

// Drawn returns the number of frames presented so far.
func (c *Consumer) Drawn() uint64 {
	return atomic.LoadUint64(&c.drawn)
}

// Skipped returns the number of ticks that presented nothing.
func (c *Consumer) Skipped() uint64 {
	return atomic.LoadUint64(&c.skipped)
}

// LastVersion returns the version of the most recently drawn frame.
func (c *Consumer) LastVersion() uint64 {
	return atomic.LoadUint64(&c.lastDrawn)
}
