package main

import (
	"testing"
	"time"
)

func TestResolveInterval(t *testing.T) {
	for _, tc := range []struct {
		name         string
		configuredMs int
		refreshHz    float64
		want         time.Duration
	}{
		{"configured wins", 50, 144, 50 * time.Millisecond},
		{"derived from refresh", 0, 100, 10 * time.Millisecond},
		{"high refresh", 0, 240, time.Second / 240},
		{"no refresh info", 0, 0, time.Second / 60},
		{"negative config ignored", -5, 0, time.Second / 60},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveInterval(tc.configuredMs, tc.refreshHz); got != tc.want {
				t.Errorf("resolveInterval(%d, %v) = %v, want %v", tc.configuredMs, tc.refreshHz, got, tc.want)
			}
		})
	}
}

func TestDebugAddr(t *testing.T) {
	if got := debugAddr(8654); got != ":8654" {
		t.Errorf("debugAddr(8654) = %q, want :8654", got)
	}
	if got := debugAddr(0); got != "" {
		t.Errorf("debugAddr(0) = %q, want disabled", got)
	}
	if got := debugAddr(-1); got != "" {
		t.Errorf("debugAddr(-1) = %q, want disabled", got)
	}
}
