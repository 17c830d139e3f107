//go:build !windows

package overlay

import (
	"context"
	"errors"
	"time"

	"veil/render"
)

// ErrUnsupported reports that the overlay window has no implementation for
// this platform. The overlay is the process's output surface, so main treats
// this as fatal at startup.
var ErrUnsupported = errors.New("overlay window requires windows")

type Window struct{}

func New(monitor int, format uint32, minInterval time.Duration) (*Window, error) {
	return nil, ErrUnsupported
}

func (w *Window) Attach(consumer *render.Consumer) {}
func (w *Window) Renderer() *render.Renderer       { return nil }
func (w *Window) Run(ctx context.Context) error    { return ErrUnsupported }
func (w *Window) Close()                           {}
