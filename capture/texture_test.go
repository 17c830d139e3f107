package capture

import (
	"errors"
	"testing"

	"veil/frame"
	"veil/util"
)

// fakeTextureOps hands out a new handle per EnsureShared call and lets tests
// inject GPU failures and mutex contention.
type fakeTextureOps struct {
	handle    uintptr
	ensureErr error
	busy      bool

	ensures  int
	copies   int
	releases int
	lastCopy uintptr
	lastW    int
	lastH    int
}

func (o *fakeTextureOps) EnsureShared(w, h int) (uintptr, error) {
	if o.ensureErr != nil {
		return 0, o.ensureErr
	}
	o.ensures++
	o.lastW, o.lastH = w, h
	o.handle += 0x10
	return o.handle, nil
}

func (o *fakeTextureOps) TryAcquire() (bool, error) { return !o.busy, nil }
func (o *fakeTextureOps) CopyFrom(tex uintptr)      { o.copies++; o.lastCopy = tex }
func (o *fakeTextureOps) Release() error            { o.releases++; return nil }
func (o *fakeTextureOps) Close()                    {}

func TestTextureAdapterPublishes(t *testing.T) {
	slot := frame.NewSlot()
	ops := &fakeTextureOps{}
	first := util.NewEvent()
	a := NewTextureAdapter(ops, slot, first)

	deliver(t, a, &Frame{Width: 1920, Height: 1080, Texture: 0xAA})

	snap := slot.Snapshot()
	if snap.Handle != ops.handle || snap.Width != 1920 || snap.Height != 1080 {
		t.Errorf("slot header = %+v, want handle %#x 1920x1080", snap, ops.handle)
	}
	// Handle publication then content bump.
	if snap.Version != 2 {
		t.Errorf("version = %d, want 2", snap.Version)
	}
	if ops.copies != 1 || ops.lastCopy != 0xAA {
		t.Errorf("copies=%d lastCopy=%#x, want one copy of 0xAA", ops.copies, ops.lastCopy)
	}
	if ops.releases != 1 {
		t.Errorf("releases = %d, want 1", ops.releases)
	}
	if !first.HasFired() {
		t.Error("first-frame event did not fire")
	}
	if a.Published() != 1 {
		t.Errorf("published = %d, want 1", a.Published())
	}
}

func TestTextureAdapterRecreatesOnResize(t *testing.T) {
	slot := frame.NewSlot()
	ops := &fakeTextureOps{}
	a := NewTextureAdapter(ops, slot, nil)

	deliver(t, a, &Frame{Width: 100, Height: 100, Texture: 1})
	deliver(t, a, &Frame{Width: 100, Height: 100, Texture: 2})
	if ops.ensures != 1 {
		t.Errorf("ensures = %d after same-size frames, want 1", ops.ensures)
	}

	deliver(t, a, &Frame{Width: 200, Height: 150, Texture: 3})
	if ops.ensures != 2 || ops.lastW != 200 || ops.lastH != 150 {
		t.Errorf("ensures=%d last=%dx%d, want recreate at 200x150", ops.ensures, ops.lastW, ops.lastH)
	}
	snap := slot.Snapshot()
	if snap.Handle != ops.handle || snap.Width != 200 || snap.Height != 150 {
		t.Errorf("slot header = %+v, want new handle at 200x150", snap)
	}
}

func TestTextureAdapterSkipsBusyMutex(t *testing.T) {
	slot := frame.NewSlot()
	ops := &fakeTextureOps{}
	a := NewTextureAdapter(ops, slot, nil)

	deliver(t, a, &Frame{Width: 64, Height: 64, Texture: 1})

	ops.busy = true
	deliver(t, a, &Frame{Width: 64, Height: 64, Texture: 2})
	if ops.copies != 1 {
		t.Errorf("copied while mutex busy: copies = %d", ops.copies)
	}
	if a.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", a.Skipped())
	}
	v := slot.Snapshot().Version

	ops.busy = false
	deliver(t, a, &Frame{Width: 64, Height: 64, Texture: 3})
	if slot.Snapshot().Version != v+1 {
		t.Error("version did not advance once the mutex freed up")
	}
}

func TestTextureAdapterRetriesFailedCreate(t *testing.T) {
	slot := frame.NewSlot()
	ops := &fakeTextureOps{ensureErr: errors.New("out of memory")}
	a := NewTextureAdapter(ops, slot, nil)

	// Creation failure is a skip, not an abort: OnFrame must not return an
	// error, or the source's run loop would stop.
	deliver(t, a, &Frame{Width: 100, Height: 100, Texture: 1})
	if slot.Snapshot().Published() {
		t.Error("published a handle despite a failed creation")
	}
	if a.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", a.Skipped())
	}

	ops.ensureErr = nil
	deliver(t, a, &Frame{Width: 100, Height: 100, Texture: 2})
	snap := slot.Snapshot()
	if !snap.Published() || snap.Handle != ops.handle {
		t.Errorf("recovery frame not published: %+v", snap)
	}
	if a.Published() != 1 {
		t.Errorf("published = %d, want 1", a.Published())
	}
}

func TestTextureAdapterSkipsEmptyFrame(t *testing.T) {
	slot := frame.NewSlot()
	a := NewTextureAdapter(&fakeTextureOps{}, slot, nil)

	deliver(t, a, &Frame{Width: 100, Height: 100})
	if slot.Snapshot().Published() {
		t.Error("published without a texture")
	}
	if a.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", a.Skipped())
	}
}
