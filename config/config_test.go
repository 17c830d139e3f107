package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(c *Config) {}, true},
		{"bytes transport", func(c *Config) { c.Transport = TransportBytes }, true},
		{"screenshot backend with bytes", func(c *Config) {
			c.Transport = TransportBytes
			c.Backend = BackendScreenshot
		}, true},
		{"texture over screenshot", func(c *Config) { c.Backend = BackendScreenshot }, false},
		{"bad transport", func(c *Config) { c.Transport = "dma" }, false},
		{"bad backend", func(c *Config) { c.Backend = "x11" }, false},
		{"bad format", func(c *Config) { c.ColorFormat = "yuv" }, false},
		{"negative monitor", func(c *Config) { c.Monitor = -1 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("VEIL_MONITOR", "2")
	t.Setenv("VEIL_TRANSPORT", TransportBytes)

	c := Default()
	c.applyEnv()
	if c.Monitor != 2 {
		t.Errorf("monitor override not applied: %d", c.Monitor)
	}
	if c.Transport != TransportBytes {
		t.Errorf("transport override not applied: %q", c.Transport)
	}
}
