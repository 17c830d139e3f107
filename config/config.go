package config

import (
	"fmt"
	"os"
	"strconv"
)

// Transport selects the frame handoff strategy between the capture adapter
// and the render loop.
const (
	TransportBytes   = "bytes"   // CPU swap-buffer handoff of raw BGRA pixels
	TransportTexture = "texture" // GPU shared texture guarded by a keyed mutex
)

// Capture backends. "auto" resolves to duplication on Windows and screenshot
// elsewhere.
const (
	BackendAuto        = "auto"
	BackendDuplication = "duplication"
	BackendScreenshot  = "screenshot"
)

// Pixel formats accepted for the capture source. The screenshot backend
// always produces RGBA regardless of this setting.
const (
	FormatBGRA8 = "bgra8"
	FormatRGBA8 = "rgba8"
)

type Config struct {
	// Monitor is the index of the display to mirror. 0 is the primary.
	Monitor int

	// Transport is "bytes" or "texture". The texture transport requires the
	// duplication backend.
	Transport string

	Backend     string
	ColorFormat string

	// MinUpdateIntervalMs paces the pipeline: the screenshot poll rate and
	// the overlay's present throttle. Zero means one frame at the display
	// refresh rate, falling back to 60Hz when the rate is unknown.
	MinUpdateIntervalMs int

	// LogLevel is a logrus level name. Applied on config reload.
	LogLevel string
}

func Default() *Config {
	return &Config{
		Monitor:     0,
		Transport:   TransportTexture,
		Backend:     BackendAuto,
		ColorFormat: FormatBGRA8,
		LogLevel:    "info",
	}
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportBytes, TransportTexture:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Backend {
	case BackendAuto, BackendDuplication, BackendScreenshot:
	default:
		return fmt.Errorf("unknown capture backend %q", c.Backend)
	}
	switch c.ColorFormat {
	case FormatBGRA8, FormatRGBA8:
	default:
		return fmt.Errorf("unknown color format %q", c.ColorFormat)
	}
	if c.Transport == TransportTexture && c.Backend == BackendScreenshot {
		return fmt.Errorf("texture transport requires the duplication backend")
	}
	if c.Monitor < 0 {
		return fmt.Errorf("monitor index must not be negative")
	}
	return nil
}

// applyEnv overlays VEIL_* environment variables, typically sourced from a
// .env file loaded at startup.
func (c *Config) applyEnv() {
	if v := os.Getenv("VEIL_MONITOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Monitor = n
		}
	}
	if v := os.Getenv("VEIL_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("VEIL_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("VEIL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
