package render

import (
	"bytes"
	"errors"
	"testing"

	"veil/config"
	"veil/frame"
)

// fakeBackend records calls and lets tests stall the keyed mutex.
type fakeBackend struct {
	uploads     int
	presents    int
	opens       int
	draws       int
	releases    int
	lastPix     []byte
	lastW       int
	lastH       int
	boundHandle uintptr
	mutexBusy   bool
	uploadErr   error
	openErr     error
}

func (b *fakeBackend) UploadPixels(pix []byte, w, h int) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.uploads++
	b.lastPix = append(b.lastPix[:0], pix...)
	b.lastW, b.lastH = w, h
	return nil
}

func (b *fakeBackend) OpenShared(handle uintptr, w, h int) error {
	if b.openErr != nil {
		return b.openErr
	}
	b.opens++
	b.boundHandle = handle
	b.lastW, b.lastH = w, h
	return nil
}

func (b *fakeBackend) TryAcquire() (bool, error) { return !b.mutexBusy, nil }
func (b *fakeBackend) DrawShared() error         { b.draws++; return nil }
func (b *fakeBackend) Release() error            { b.releases++; return nil }
func (b *fakeBackend) Present() error            { b.presents++; return nil }

func fill(w, h int, v byte) []byte {
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = v
	}
	return pix
}

func TestBytesTickEmptySlot(t *testing.T) {
	b := &fakeBackend{}
	c := NewConsumer(frame.NewSlot(), b, config.TransportBytes)

	for i := 0; i < 3; i++ {
		drew, err := c.Tick()
		if err != nil {
			t.Fatal(err)
		}
		if drew {
			t.Fatal("drew from an empty slot")
		}
	}
	if b.uploads != 0 || b.presents != 0 {
		t.Errorf("backend touched on empty slot: %d uploads, %d presents", b.uploads, b.presents)
	}
}

func TestBytesTickDrawsOnce(t *testing.T) {
	slot := frame.NewSlot()
	b := &fakeBackend{}
	c := NewConsumer(slot, b, config.TransportBytes)

	slot.PublishBytes(fill(4, 2, 0x80), 4, 2)

	drew, err := c.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if !drew {
		t.Fatal("fresh frame not drawn")
	}
	if b.lastW != 4 || b.lastH != 2 {
		t.Errorf("uploaded %dx%d, want 4x2", b.lastW, b.lastH)
	}
	if !bytes.Equal(b.lastPix, fill(4, 2, 0x80)) {
		t.Error("uploaded pixels differ from published pixels")
	}

	// An unchanged slot must not be drawn again.
	for i := 0; i < 5; i++ {
		drew, err := c.Tick()
		if err != nil {
			t.Fatal(err)
		}
		if drew {
			t.Fatal("redrew an already seen frame")
		}
	}
	if b.uploads != 1 || b.presents != 1 {
		t.Errorf("got %d uploads, %d presents, want 1 each", b.uploads, b.presents)
	}
}

func TestBytesTickFollowsResize(t *testing.T) {
	slot := frame.NewSlot()
	b := &fakeBackend{}
	c := NewConsumer(slot, b, config.TransportBytes)

	slot.PublishBytes(fill(100, 100, 1), 100, 100)
	if drew, _ := c.Tick(); !drew {
		t.Fatal("first frame not drawn")
	}
	for i := 0; i < 5; i++ {
		if drew, _ := c.Tick(); drew {
			t.Fatal("idle tick drew")
		}
	}

	slot.PublishBytes(fill(200, 150, 2), 200, 150)
	if drew, _ := c.Tick(); !drew {
		t.Fatal("resized frame not drawn")
	}
	if b.lastW != 200 || b.lastH != 150 {
		t.Errorf("uploaded %dx%d after resize, want 200x150", b.lastW, b.lastH)
	}
	if len(b.lastPix) != 200*150*4 {
		t.Errorf("uploaded %d bytes, want %d", len(b.lastPix), 200*150*4)
	}
}

func TestBytesTickSkipsOverwrittenVersions(t *testing.T) {
	slot := frame.NewSlot()
	c := NewConsumer(slot, &fakeBackend{}, config.TransportBytes)

	// Producer outpaces the consumer: only the newest frame is drawn, and
	// the recorded version jumps with it.
	for i := 0; i < 10; i++ {
		slot.PublishBytes(fill(2, 2, byte(i)), 2, 2)
	}
	if drew, _ := c.Tick(); !drew {
		t.Fatal("latest frame not drawn")
	}
	if got := c.LastVersion(); got != 10 {
		t.Errorf("last drawn version = %d, want 10", got)
	}
	if drew, _ := c.Tick(); drew {
		t.Fatal("no new frame, but drew")
	}
}

func TestTextureTickBindsAndDraws(t *testing.T) {
	slot := frame.NewSlot()
	b := &fakeBackend{}
	c := NewConsumer(slot, b, config.TransportTexture)

	slot.PublishHandle(0x1234, 1920, 1080)

	drew, err := c.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if !drew {
		t.Fatal("published handle not drawn")
	}
	if b.opens != 1 || b.boundHandle != 0x1234 {
		t.Errorf("opens=%d handle=%#x, want one bind of 0x1234", b.opens, b.boundHandle)
	}
	if b.draws != 1 || b.releases != 1 {
		t.Errorf("draws=%d releases=%d, want 1 each", b.draws, b.releases)
	}

	// Content updates reuse the binding.
	slot.Bump()
	if drew, _ := c.Tick(); !drew {
		t.Fatal("bumped version not drawn")
	}
	if b.opens != 1 {
		t.Errorf("rebound on an unchanged handle: opens=%d", b.opens)
	}
}

func TestTextureTickSkipsBusyMutex(t *testing.T) {
	slot := frame.NewSlot()
	b := &fakeBackend{mutexBusy: true}
	c := NewConsumer(slot, b, config.TransportTexture)

	slot.PublishHandle(0x1234, 800, 600)

	drew, err := c.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if drew {
		t.Fatal("drew while producer held the mutex")
	}
	if b.draws != 0 {
		t.Error("draw issued without acquiring the mutex")
	}

	// The skipped version stays unconsumed and is drawn once the mutex
	// frees up.
	b.mutexBusy = false
	if drew, _ := c.Tick(); !drew {
		t.Fatal("frame lost after a busy-mutex skip")
	}
	if got := c.LastVersion(); got != 1 {
		t.Errorf("last drawn version = %d, want 1", got)
	}
}

func TestBytesTickRetriesFailedUpload(t *testing.T) {
	slot := frame.NewSlot()
	b := &fakeBackend{uploadErr: errors.New("device removed")}
	c := NewConsumer(slot, b, config.TransportBytes)

	slot.PublishBytes(fill(2, 2, 7), 2, 2)

	if drew, err := c.Tick(); err == nil || drew {
		t.Fatal("failed upload must surface as a tick error, not a draw")
	}
	if got := c.LastVersion(); got != 0 {
		t.Errorf("seen version advanced to %d on a failed upload", got)
	}

	// The frame is still pending; the next tick draws it.
	b.uploadErr = nil
	if drew, err := c.Tick(); err != nil || !drew {
		t.Fatalf("frame lost after upload failure: drew=%v err=%v", drew, err)
	}
	if got := c.LastVersion(); got != 1 {
		t.Errorf("last drawn version = %d, want 1", got)
	}
}

func TestTextureTickRetriesFailedBind(t *testing.T) {
	slot := frame.NewSlot()
	b := &fakeBackend{openErr: errors.New("producer mid-recreate")}
	c := NewConsumer(slot, b, config.TransportTexture)

	slot.PublishHandle(0x77, 64, 64)

	if drew, err := c.Tick(); err == nil || drew {
		t.Fatal("failed bind must surface as a tick error, not a draw")
	}
	if b.draws != 0 {
		t.Error("draw issued without a bound texture")
	}

	// Nothing was cached from the failed bind, so the next tick reopens the
	// handle and draws.
	b.openErr = nil
	if drew, err := c.Tick(); err != nil || !drew {
		t.Fatalf("frame lost after bind failure: drew=%v err=%v", drew, err)
	}
	if b.opens != 1 || b.boundHandle != 0x77 {
		t.Errorf("opens=%d handle=%#x, want one successful bind of 0x77", b.opens, b.boundHandle)
	}
	if got := c.LastVersion(); got != 1 {
		t.Errorf("last drawn version = %d, want 1", got)
	}
}

func TestTextureTickRebindsOnResize(t *testing.T) {
	slot := frame.NewSlot()
	b := &fakeBackend{}
	c := NewConsumer(slot, b, config.TransportTexture)

	slot.PublishHandle(0x1111, 100, 100)
	if drew, _ := c.Tick(); !drew {
		t.Fatal("first handle not drawn")
	}
	for i := 0; i < 5; i++ {
		if drew, _ := c.Tick(); drew {
			t.Fatal("idle tick drew")
		}
	}

	slot.PublishHandle(0x2222, 200, 150)
	if drew, _ := c.Tick(); !drew {
		t.Fatal("new handle not drawn")
	}
	if b.opens != 2 || b.boundHandle != 0x2222 {
		t.Errorf("opens=%d handle=%#x, want second bind of 0x2222", b.opens, b.boundHandle)
	}
	if b.lastW != 200 || b.lastH != 150 {
		t.Errorf("bound %dx%d, want 200x150", b.lastW, b.lastH)
	}
}
