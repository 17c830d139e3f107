package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veil_capture_frames_total",
		Help: "Frames successfully handed to the shared slot.",
	})
	captureSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veil_capture_skips_total",
		Help: "Frames dropped by the capture adapter, by reason.",
	}, []string{"reason"})
)
