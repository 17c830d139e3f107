package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesDrawn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veil_render_frames_total",
		Help: "Frames drawn and presented to the overlay window.",
	})
	renderSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veil_render_skips_total",
		Help: "Render ticks that presented nothing, by reason.",
	}, []string{"reason"})
)
