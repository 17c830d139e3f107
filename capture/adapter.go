package capture

import (
	"sync/atomic"

	"veil/frame"
	"veil/util"
)

// BytesAdapter is the producer side of the bytes transport. Each delivered
// frame is copied once into a scratch buffer, which is then swapped with the
// slot's payload buffer. The previous payload comes back as the next scratch,
// so steady-state operation allocates nothing.
type BytesAdapter struct {
	slot    *frame.Slot
	first   *util.Event
	scratch []byte

	published uint64
	skipped   uint64
}

// NewBytesAdapter creates the adapter. first may be nil; when set it fires on
// the first successful publication.
func NewBytesAdapter(slot *frame.Slot, first *util.Event) *BytesAdapter {
	return &BytesAdapter{slot: slot, first: first}
}

// OnFrame implements FrameFunc.
func (a *BytesAdapter) OnFrame(f *Frame) error {
	if f.Pix == nil || f.Width <= 0 || f.Height <= 0 {
		atomic.AddUint64(&a.skipped, 1)
		captureSkips.WithLabelValues("no_pixels").Inc()
		return nil
	}

	need := f.Width * f.Height * 4
	if cap(a.scratch) < need {
		a.scratch = make([]byte, need)
	}
	a.scratch = a.scratch[:need]

	rowBytes := f.Width * 4
	if f.Stride == rowBytes && len(f.Pix) >= need {
		copy(a.scratch, f.Pix[:need])
	} else {
		// Source rows carry alignment padding; repack tightly.
		for y := 0; y < f.Height; y++ {
			src := f.Pix[y*f.Stride : y*f.Stride+rowBytes]
			copy(a.scratch[y*rowBytes:], src)
		}
	}

	a.scratch = a.slot.PublishBytes(a.scratch, f.Width, f.Height)
	atomic.AddUint64(&a.published, 1)
	framesCaptured.Inc()
	if a.first != nil {
		a.first.Notify()
	}
	return nil
}

// Published returns the number of frames published so far.
func (a *BytesAdapter) Published() uint64 {
	return atomic.LoadUint64(&a.published)
}

// Skipped returns the number of frames dropped without publication.
func (a *BytesAdapter) Skipped() uint64 {
	return atomic.LoadUint64(&a.skipped)
}
