package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/kbinani/screenshot"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"veil/config"
	"veil/frame"
	"veil/overlay"
	"veil/render"
	"veil/serve"
	"veil/util"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file. Watched for changes.")
	port       = flag.Int("port", 8654, "Port for the debug HTTP endpoints. 0 disables them.")
)

// debugAddr is the listen address for the debug endpoints, or "" when they
// are disabled.
func debugAddr(port int) string {
	if port <= 0 {
		return ""
	}
	return fmt.Sprintf(":%d", port)
}

func main() {
	flag.Parse()

	// Optional .env next to the binary; real environment wins.
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded environment from .env")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *configPath != "" {
		if err := config.Load(ctx, *configPath); err != nil {
			log.Fatalf("Failed to load config %q: %v", *configPath, err)
		}
	} else {
		if err := config.LoadStatic(config.Default()); err != nil {
			log.Fatalf("Invalid default config: %v", err)
		}
	}
	cfg := config.Get()

	if n := screenshot.NumActiveDisplays(); n > 0 && cfg.Monitor >= n {
		log.Warnf("Monitor %d not present (%d displays), falling back to primary", cfg.Monitor, n)
		cfg.Monitor = 0
	}

	start := time.Now()
	slot := frame.NewSlot()
	first := util.NewEvent()

	prod, err := newProducer(cfg, slot, first)
	if err != nil {
		log.Fatalf("Failed to start capture: %v", err)
	}
	defer prod.close()

	window, err := overlay.New(cfg.Monitor, captureFormat(cfg), prod.interval)
	if err != nil {
		log.Fatalf("Failed to create overlay: %v", err)
	}
	defer window.Close()

	consumer := render.NewConsumer(slot, window.Renderer(), cfg.Transport)
	window.Attach(consumer)

	go func() {
		if err := prod.source.Run(ctx, prod.onFrame); err != nil && ctx.Err() == nil {
			log.Errorf("Capture stopped: %v", err)
			cancel()
		}
	}()

	go func() {
		select {
		case <-first.Done():
			log.Infof("First frame after %v", first.FiredAt().Sub(start))
		case <-ctx.Done():
		}
	}()

	stats := func() *serve.Stats {
		snap := slot.Snapshot()
		s := &serve.Stats{
			UptimeSec:       time.Since(start).Seconds(),
			Transport:       cfg.Transport,
			Backend:         resolveBackend(cfg),
			Source:          prod.source.Name(),
			FramesPublished: prod.stats.Published(),
			CaptureSkips:    prod.stats.Skipped(),
			FramesDrawn:     consumer.Drawn(),
			RenderSkips:     consumer.Skipped(),
			SlotVersion:     snap.Version,
			DrawnVersion:    consumer.LastVersion(),
		}
		s.SourceWidth, s.SourceHeight = prod.source.Size()
		if first.HasFired() {
			s.TimeToFirstFrameMs = float64(first.FiredAt().Sub(start)) / float64(time.Millisecond)
		}
		return s
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Infof("Caught signal %v, shutting down", sig)
		cancel()
	}()

	if addr := debugAddr(*port); addr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			http.Handle("/stats", &serve.StatsServer{F: stats})
			http.Handle("/statsws", serve.NewStatsUpdater(stats))
			log.Infof("Debug endpoints on %s", addr)
			log.Error(http.ListenAndServe(addr,
				handlers.CombinedLoggingHandler(os.Stderr, http.DefaultServeMux)))
		}()
	} else {
		log.Info("Debug HTTP endpoints disabled")
	}

	// The message pump owns the main thread until shutdown.
	if err := window.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Overlay loop failed: %v", err)
	}
}
