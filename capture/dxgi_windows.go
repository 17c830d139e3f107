//go:build windows

package capture

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unsafe"

	log "github.com/sirupsen/logrus"

	"veil/d3d"
)

// acquireTimeoutMs bounds each AcquireNextFrame wait so the run loop can
// notice context cancellation on an idle desktop.
const acquireTimeoutMs = 100

// DuplicationSource captures one output through DXGI desktop duplication.
// In pixel mode every frame is copied to a staging texture and mapped for
// CPU delivery; in texture mode the acquired GPU texture is delivered
// directly, which is what the zero-copy adapter wants.
type DuplicationSource struct {
	output  int
	pixels  bool
	dev     *d3d.Device
	dupl    *d3d.Duplication
	staging *d3d.StagingTexture
	width   int
	height  int
}

// NewDuplicationSource starts duplication on the given output. When pixels
// is true, frames are read back to CPU memory; otherwise frames carry the
// GPU texture.
func NewDuplicationSource(output int, pixels bool) (*DuplicationSource, error) {
	dev, err := d3d.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("create capture device: %w", err)
	}
	s := &DuplicationSource{output: output, pixels: pixels, dev: dev}
	if err := s.start(); err != nil {
		dev.Close()
		return nil, err
	}
	return s, nil
}

func (s *DuplicationSource) start() error {
	dupl, err := s.dev.DuplicateOutput(s.output)
	if err != nil {
		return fmt.Errorf("duplicate output %d: %w", s.output, err)
	}
	s.dupl = dupl
	s.width = dupl.Width()
	s.height = dupl.Height()

	if s.pixels {
		if s.staging != nil {
			s.staging.Close()
		}
		staging, err := s.dev.CreateStagingTexture(s.width, s.height, dupl.Format())
		if err != nil {
			dupl.Close()
			s.dupl = nil
			return fmt.Errorf("create staging texture: %w", err)
		}
		s.staging = staging
	}

	log.WithFields(log.Fields{
		"output": s.output,
		"size":   fmt.Sprintf("%dx%d", s.width, s.height),
		"hz":     dupl.RefreshHz(),
	}).Info("Desktop duplication started")
	return nil
}

// restart tears down the duplication session and recreates it, retrying
// until ctx is cancelled. Access is commonly lost across mode changes and
// the secure desktop; recreation succeeds once the desktop is back.
func (s *DuplicationSource) restart(ctx context.Context) error {
	if s.dupl != nil {
		s.dupl.Close()
		s.dupl = nil
	}
	for {
		err := s.start()
		if err == nil {
			return nil
		}
		log.Warnf("Duplication restart failed, retrying: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *DuplicationSource) Run(ctx context.Context, fn FrameFunc) error {
	f := &Frame{}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		tex, ok, err := s.dupl.AcquireFrame(acquireTimeoutMs)
		if errors.Is(err, d3d.ErrAccessLost) {
			log.Info("Duplication access lost, reinitializing")
			if err := s.restart(ctx); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("acquire frame: %w", err)
		}
		if !ok {
			continue
		}

		if s.pixels {
			err = s.deliverPixels(tex, fn, f)
		} else {
			err = s.deliverTexture(tex, fn, f)
		}
		d3d.Release(tex)
		s.dupl.ReleaseFrame()
		if err != nil {
			return err
		}
	}
}

func (s *DuplicationSource) deliverPixels(tex uintptr, fn FrameFunc, f *Frame) error {
	s.dev.CopyResource(s.staging.Texture, tex)
	base, pitch, err := s.dev.MapRead(s.staging)
	if err != nil {
		// One bad map is not fatal; the next frame gets a fresh copy.
		log.Debugf("Staging map failed: %v", err)
		return nil
	}
	defer s.dev.UnmapRead(s.staging)

	f.Width = s.width
	f.Height = s.height
	f.Pix = unsafe.Slice((*byte)(unsafe.Pointer(base)), s.height*pitch)
	f.Stride = pitch
	f.Texture = 0
	err = fn(f)
	f.Pix = nil
	return err
}

func (s *DuplicationSource) deliverTexture(tex uintptr, fn FrameFunc, f *Frame) error {
	f.Width = s.width
	f.Height = s.height
	f.Pix = nil
	f.Stride = 0
	f.Texture = tex
	err := fn(f)
	f.Texture = 0
	return err
}

// Device exposes the capture-side D3D device so the zero-copy adapter can
// create its shared texture on the same device that owns the frames.
func (s *DuplicationSource) Device() *d3d.Device { return s.dev }

// Format is the duplicated output's frame format. The zero-copy adapter's
// shared texture must use it for CopyResource to be valid.
func (s *DuplicationSource) Format() uint32 { return s.dupl.Format() }

// RefreshHz is the output's mode refresh rate, or 0 when unknown.
func (s *DuplicationSource) RefreshHz() float64 { return s.dupl.RefreshHz() }

func (s *DuplicationSource) Size() (int, int) { return s.width, s.height }

func (s *DuplicationSource) Name() string { return "duplication" }

func (s *DuplicationSource) Close() {
	if s.staging != nil {
		s.staging.Close()
		s.staging = nil
	}
	if s.dupl != nil {
		s.dupl.Close()
		s.dupl = nil
	}
	if s.dev != nil {
		s.dev.Close()
		s.dev = nil
	}
}
