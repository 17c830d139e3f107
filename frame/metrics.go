package frame

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var framesPublished = promauto.NewCounter(prometheus.CounterOpts{
	Name: "veil_frames_published_total",
	Help: "Number of frame publications into the shared slot.",
})
