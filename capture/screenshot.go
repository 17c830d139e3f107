package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/kbinani/screenshot"
	log "github.com/sirupsen/logrus"
)

// ScreenshotSource polls the desktop with the portable screenshot library.
// It is the fallback frame source for the bytes transport: works everywhere,
// costs a CPU readback per frame. Pixels are delivered as RGBA.
type ScreenshotSource struct {
	monitor  int
	interval time.Duration
	width    int
	height   int
}

func NewScreenshotSource(monitor int, interval time.Duration) (*ScreenshotSource, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	if monitor >= n {
		return nil, fmt.Errorf("monitor %d out of range (%d displays)", monitor, n)
	}
	bounds := screenshot.GetDisplayBounds(monitor)
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &ScreenshotSource{
		monitor:  monitor,
		interval: interval,
		width:    bounds.Dx(),
		height:   bounds.Dy(),
	}, nil
}

func (s *ScreenshotSource) Run(ctx context.Context, fn FrameFunc) error {
	log.WithField("monitor", s.monitor).Infof("Screenshot capture at %v interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	f := &Frame{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		img, err := screenshot.CaptureDisplay(s.monitor)
		if err != nil {
			// Transient: a locked session or display switch can fail a
			// single grab. Keep showing the last good frame.
			log.Debugf("Screenshot capture failed: %v", err)
			continue
		}

		bounds := img.Bounds()
		f.Width = bounds.Dx()
		f.Height = bounds.Dy()
		f.Pix = img.Pix
		f.Stride = img.Stride
		f.Texture = 0
		if err := fn(f); err != nil {
			return err
		}
	}
}

func (s *ScreenshotSource) Size() (int, int) {
	return s.width, s.height
}

func (s *ScreenshotSource) Name() string {
	return "screenshot"
}

func (s *ScreenshotSource) Close() {}
