//go:build !windows

package render

import "errors"

// ErrUnsupported reports that no GPU backend exists for this platform.
var ErrUnsupported = errors.New("d3d renderer requires windows")

// Renderer satisfies Backend so the wiring compiles off windows; every
// operation fails.
type Renderer struct{}

func (r *Renderer) Resize(width, height int)                  {}
func (r *Renderer) UploadPixels(pix []byte, w, h int) error   { return ErrUnsupported }
func (r *Renderer) OpenShared(handle uintptr, w, h int) error { return ErrUnsupported }
func (r *Renderer) TryAcquire() (bool, error)                 { return false, ErrUnsupported }
func (r *Renderer) DrawShared() error                         { return ErrUnsupported }
func (r *Renderer) Release() error                            { return ErrUnsupported }
func (r *Renderer) Present() error                            { return ErrUnsupported }
func (r *Renderer) Close()                                    {}
