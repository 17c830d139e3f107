//go:build windows

package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"veil/capture"
	"veil/config"
	"veil/frame"
	"veil/util"
)

func resolveBackend(cfg *config.Config) string {
	if cfg.Backend == config.BackendAuto {
		return config.BackendDuplication
	}
	return cfg.Backend
}

// newProducer builds the capture source and its slot adapter per the
// configured backend and transport.
func newProducer(cfg *config.Config, slot *frame.Slot, first *util.Event) (*producer, error) {
	backend := resolveBackend(cfg)

	if backend == config.BackendScreenshot {
		return newScreenshotProducer(cfg, slot, first)
	}

	pixels := cfg.Transport == config.TransportBytes
	src, err := capture.NewDuplicationSource(cfg.Monitor, pixels)
	if err != nil {
		return nil, fmt.Errorf("duplication source: %w", err)
	}
	interval := resolveInterval(cfg.MinUpdateIntervalMs, src.RefreshHz())

	if pixels {
		a := capture.NewBytesAdapter(slot, first)
		return &producer{source: src, onFrame: a.OnFrame, stats: a, interval: interval, close: src.Close}, nil
	}

	// Zero-copy: the shared texture must live on the device that owns the
	// duplicated frames, in the output's own format.
	ops := capture.NewSharedTextureOps(src.Device(), src.Format())
	a := capture.NewTextureAdapter(ops, slot, first)
	return &producer{
		source:   src,
		onFrame:  a.OnFrame,
		stats:    a,
		interval: interval,
		close: func() {
			src.Close()
			a.Close()
		},
	}, nil
}

func newScreenshotProducer(cfg *config.Config, slot *frame.Slot, first *util.Event) (*producer, error) {
	if cfg.ColorFormat != config.FormatRGBA8 {
		log.Warnf("Screenshot backend produces RGBA; overriding color format %q", cfg.ColorFormat)
		cfg.ColorFormat = config.FormatRGBA8
	}
	interval := resolveInterval(cfg.MinUpdateIntervalMs, 0)
	src, err := capture.NewScreenshotSource(cfg.Monitor, interval)
	if err != nil {
		return nil, fmt.Errorf("screenshot source: %w", err)
	}
	a := capture.NewBytesAdapter(slot, first)
	return &producer{source: src, onFrame: a.OnFrame, stats: a, interval: interval, close: src.Close}, nil
}
