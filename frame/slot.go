package frame

import (
	"sync"
)

// Snapshot is a point-in-time view of the slot header. It carries no pixel
// data; the copy-strategy consumer pulls bytes with CopyPixels so that payload
// and dimensions always come from the same critical section.
type Snapshot struct {
	Width   int
	Height  int
	Version uint64
	Handle  uintptr
	HasPix  bool
}

// Published reports whether any frame has ever been placed in the slot.
// Version 0 is reserved for the empty slot; the first publication is 1.
func (s Snapshot) Published() bool {
	return s.Version > 0
}

// Slot is the single cell shared between the capture adapter (producer) and
// the render loop (consumer). It holds the latest frame only; publishing over
// an unconsumed frame replaces it. The lock is held for a pointer swap or a
// header read, never across a capture decode, GPU copy or draw.
//
// Payload is one of two representations, fixed at startup by the transport:
// a tightly packed BGRA byte buffer (4 bytes/pixel, len == width*height*4),
// or an exported shared-texture handle guarded by a keyed mutex on the GPU.
type Slot struct {
	mu      sync.Mutex
	version uint64
	width   int
	height  int
	pix     []byte
	handle  uintptr
}

func NewSlot() *Slot {
	return &Slot{}
}

// PublishBytes installs pix as the new payload and returns the previous slot
// buffer for reuse as the producer's next scratch buffer. The exchange is a
// pointer swap; no pixel bytes are copied here. Dimensions and payload change
// together under one lock acquisition so a consumer can never observe a
// mismatched pair.
func (s *Slot) PublishBytes(pix []byte, width, height int) []byte {
	s.mu.Lock()
	old := s.pix
	s.pix = pix
	s.width = width
	s.height = height
	s.version++
	s.mu.Unlock()

	framesPublished.Inc()
	return old
}

// PublishHandle installs a newly exported shared-texture handle. Called only
// when the shared texture is (re)created, i.e. on the first frame and on
// source resolution changes. The old handle is simply forgotten; its texture
// is owned and released by the producer.
func (s *Slot) PublishHandle(handle uintptr, width, height int) {
	s.mu.Lock()
	s.handle = handle
	s.width = width
	s.height = height
	s.version++
	s.mu.Unlock()

	framesPublished.Inc()
}

// Bump publishes a new version with the payload unchanged. The zero-copy
// producer calls this after each GPU copy into the shared texture: the handle
// is the same, but the consumer must learn that fresh content is behind it.
func (s *Slot) Bump() {
	s.mu.Lock()
	s.version++
	s.mu.Unlock()

	framesPublished.Inc()
}

// Snapshot returns the current header without blocking the producer for more
// than a few field reads.
func (s *Slot) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Width:   s.width,
		Height:  s.height,
		Version: s.version,
		Handle:  s.handle,
		HasPix:  s.pix != nil,
	}
	s.mu.Unlock()
	return snap
}

// CopyPixels copies the current payload into dst (grown if needed) and
// returns it together with the header observed in the same critical section.
// ok is false before the first byte publication. The lock is held for the
// duration of the memcpy only; the caller uploads to the GPU from its own
// buffer afterwards.
func (s *Slot) CopyPixels(dst []byte) ([]byte, int, int, uint64, bool) {
	s.mu.Lock()
	if s.pix == nil {
		s.mu.Unlock()
		return dst, 0, 0, 0, false
	}
	if cap(dst) < len(s.pix) {
		dst = make([]byte, len(s.pix))
	}
	dst = dst[:len(s.pix)]
	copy(dst, s.pix)
	w, h, v := s.width, s.height, s.version
	s.mu.Unlock()
	return dst, w, h, v, true
}
