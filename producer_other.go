//go:build !windows

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
		return config.BackendScreenshot
	}
	return cfg.Backend
}

func newProducer(cfg *config.Config, slot *frame.Slot, first *util.Event) (*producer, error) {
	if resolveBackend(cfg) != config.BackendScreenshot {
		return nil, fmt.Errorf("backend %q requires windows", cfg.Backend)
	}
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
