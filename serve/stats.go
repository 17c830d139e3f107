package serve

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Stats is the pipeline snapshot reported on /stats and pushed over the
// stats websocket.
type Stats struct {
	UptimeSec float64

	Transport string
	Backend   string
	Source    string

	SourceWidth  int
	SourceHeight int

	FramesPublished uint64
	CaptureSkips    uint64
	FramesDrawn     uint64
	RenderSkips     uint64

	// SlotVersion is the newest published frame; DrawnVersion the newest
	// presented one. The gap is the consumer's lag in frames.
	SlotVersion  uint64
	DrawnVersion uint64

	// TimeToFirstFrameMs is 0 until the first frame lands in the slot.
	TimeToFirstFrameMs float64
}

// StatsFunc builds a point-in-time Stats. Called from HTTP handler
// goroutines; implementations read only atomics and slot headers.
type StatsFunc func() *Stats

// StatsServer serves the current stats as JSON.
type StatsServer struct {
	F StatsFunc
}

func (s *StatsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.F()); err != nil {
		log.Errorf("Failed to encode stats: %v", err)
	}
}
