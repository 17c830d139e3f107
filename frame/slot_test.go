package frame

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEmptySlot(t *testing.T) {
	s := NewSlot()

	snap := s.Snapshot()
	if snap.Published() {
		t.Errorf("empty slot reports Published: %+v", snap)
	}
	if _, _, _, _, ok := s.CopyPixels(nil); ok {
		t.Error("CopyPixels returned ok on empty slot")
	}
}

func TestPublishBytesSwap(t *testing.T) {
	s := NewSlot()

	a := bytes.Repeat([]byte{1}, 4*2*2)
	b := bytes.Repeat([]byte{2}, 4*2*2)

	if old := s.PublishBytes(a, 2, 2); old != nil {
		t.Errorf("first publish returned non-nil scratch: %v", old)
	}
	old := s.PublishBytes(b, 2, 2)
	if &old[0] != &a[0] {
		t.Error("second publish did not return the previously published buffer")
	}

	// Steady state: the same two buffers must circulate with no fresh
	// allocation once sizes stabilize.
	scratch := old
	for i := 0; i < 100; i++ {
		scratch = s.PublishBytes(scratch, 2, 2)
		if &scratch[0] != &a[0] && &scratch[0] != &b[0] {
			t.Fatalf("iteration %d: swap returned a buffer outside the original pair", i)
		}
	}
}

func TestVersionMonotonic(t *testing.T) {
	s := NewSlot()

	var done atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)

	// Producer: alternate full publications and version bumps.
	go func() {
		defer wg.Done()
		scratch := make([]byte, 4*8*8)
		for i := 0; i < 5000; i++ {
			if i%2 == 0 {
				scratch = s.PublishBytes(scratch, 8, 8)
				if scratch == nil {
					scratch = make([]byte, 4*8*8)
				}
			} else {
				s.Bump()
			}
		}
		done.Store(true)
	}()

	// Consumer: versions observed in real time must never decrease.
	go func() {
		defer wg.Done()
		var last uint64
		for !done.Load() {
			v := s.Snapshot().Version
			if v < last {
				t.Errorf("version went backwards: %d after %d", v, last)
				return
			}
			last = v
		}
	}()

	wg.Wait()
	if v := s.Snapshot().Version; v != 5000 {
		t.Errorf("expected final version 5000, got %d", v)
	}
}

// TestNoTearing exercises the copy-strategy invariant: a consume always
// returns a payload whose length matches the dimensions returned by the same
// call, for any interleaving of publications, including resolution changes.
func TestNoTearing(t *testing.T) {
	s := NewSlot()

	sizes := [][2]int{{100, 100}, {200, 150}, {64, 64}, {1, 1}}

	var done atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var scratch []byte
		for i := 0; !done.Load(); i++ {
			wh := sizes[i%len(sizes)]
			n := wh[0] * wh[1] * 4
			if cap(scratch) < n {
				scratch = make([]byte, n)
			}
			scratch = s.PublishBytes(scratch[:n], wh[0], wh[1])
		}
	}()

	go func() {
		defer wg.Done()
		var local []byte
		for i := 0; i < 20000; i++ {
			pix, w, h, _, ok := s.CopyPixels(local)
			local = pix
			if !ok {
				continue
			}
			if len(pix) != w*h*4 {
				t.Errorf("torn consume: %d bytes for %dx%d", len(pix), w, h)
				return
			}
		}
		done.Store(true)
	}()

	wg.Wait()
}

func TestPublishNonBlocking(t *testing.T) {
	s := NewSlot()

	scratch := make([]byte, 4*64*64)
	start := time.Now()
	for i := 0; i < 1000; i++ {
		scratch = s.PublishBytes(scratch, 64, 64)
	}
	elapsed := time.Since(start)

	// A publish is a pointer swap under a mutex; even three orders of
	// magnitude of slack keeps this well under a frame interval.
	if elapsed > 100*time.Millisecond {
		t.Errorf("1000 publications took %v", elapsed)
	}
}

func TestPublishHandle(t *testing.T) {
	s := NewSlot()

	s.PublishHandle(0xbeef, 1920, 1080)
	snap := s.Snapshot()
	if snap.Handle != 0xbeef || snap.Width != 1920 || snap.Height != 1080 {
		t.Errorf("unexpected snapshot after handle publish: %+v", snap)
	}
	if snap.Version != 1 {
		t.Errorf("expected version 1, got %d", snap.Version)
	}

	// Per-frame bumps leave the handle and dimensions untouched.
	s.Bump()
	s.Bump()
	snap = s.Snapshot()
	if snap.Version != 3 || snap.Handle != 0xbeef {
		t.Errorf("unexpected snapshot after bumps: %+v", snap)
	}
	if snap.HasPix {
		t.Error("handle slot reports pixel payload")
	}
}
