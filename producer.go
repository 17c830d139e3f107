package main

import (
	"time"

	"veil/capture"
	"veil/config"
	"veil/d3d"
)

// producerStats is the counter surface both capture adapters share.
type producerStats interface {
	Published() uint64
	Skipped() uint64
}

// producer bundles a frame source with the adapter feeding the slot and the
// resolved pacing interval.
type producer struct {
	source   capture.Source
	onFrame  capture.FrameFunc
	stats    producerStats
	interval time.Duration
	close    func()
}

// resolveInterval picks the minimum update interval: the configured value
// when set, else one frame at the display refresh rate, else 60Hz.
func resolveInterval(configuredMs int, refreshHz float64) time.Duration {
	if configuredMs > 0 {
		return time.Duration(configuredMs) * time.Millisecond
	}
	if refreshHz > 0 {
		return time.Duration(float64(time.Second) / refreshHz)
	}
	return time.Second / 60
}

func captureFormat(cfg *config.Config) uint32 {
	if cfg.ColorFormat == config.FormatRGBA8 {
		return d3d.FormatR8G8B8A8Unorm
	}
	return d3d.FormatB8G8R8A8Unorm
}
