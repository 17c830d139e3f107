package render

import "veil/frame"

// Decision is the outcome of inspecting the slot header on one render tick.
type Decision int

const (
	// SkipEmpty: nothing has ever been published; present nothing.
	SkipEmpty Decision = iota
	// SkipSeen: the newest frame was already drawn; do not draw it again.
	SkipSeen
	// Render: a frame newer than the last drawn one is available.
	Render
)

func (d Decision) String() string {
	switch d {
	case SkipEmpty:
		return "skip_empty"
	case SkipSeen:
		return "skip_seen"
	case Render:
		return "render"
	}
	return "unknown"
}

// Decide compares the slot header against the consumer's last drawn version.
// Versions only grow, so a simple less-than covers both the steady state and
// frames that were overwritten before they could be drawn.
func Decide(snap frame.Snapshot, lastDrawn uint64) Decision {
	if !snap.Published() {
		return SkipEmpty
	}
	if snap.Version <= lastDrawn {
		return SkipSeen
	}
	return Render
}

// ShouldResize reports whether a window size change must reach the
// swapchain. Zero dimensions (a minimized window) and no-op changes keep the
// current configuration.
func ShouldResize(width, height, currentW, currentH int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	return width != currentW || height != currentH
}

// NeedsRebind reports whether the texture-transport consumer must reopen the
// shared texture: the producer exported a new handle, or the dimensions moved
// under the same handle value after a recreate.
func NeedsRebind(snap frame.Snapshot, boundHandle uintptr, boundW, boundH int) bool {
	if snap.Handle == 0 {
		return false
	}
	return snap.Handle != boundHandle || snap.Width != boundW || snap.Height != boundH
}
