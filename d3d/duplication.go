//go:build windows

package d3d

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrAccessLost reports that the desktop duplication session was invalidated
// (mode switch, secure desktop, display reattach). Callers recover by
// recreating the duplication.
var ErrAccessLost = errors.New("duplication access lost")

// Duplication wraps an IDXGIOutputDuplication session on one output.
type Duplication struct {
	ptr    uintptr // IDXGIOutputDuplication
	width  int
	height int
	format uint32
	hz     float64
}

// DuplicateOutput starts desktop duplication on the adapter output at index.
func (d *Device) DuplicateOutput(output int) (*Duplication, error) {
	dxgiDev, err := queryInterface(d.ptr, &iidIDXGIDevice)
	if err != nil {
		return nil, fmt.Errorf("QI IDXGIDevice: %w", err)
	}
	defer comRelease(dxgiDev)

	var adapter uintptr
	if _, err := comCall(dxgiDev, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); err != nil {
		return nil, fmt.Errorf("GetAdapter: %w", err)
	}
	defer comRelease(adapter)

	var out uintptr
	if _, err := comCall(adapter, dxgiAdapterEnumOutputs,
		uintptr(output), uintptr(unsafe.Pointer(&out))); err != nil {
		return nil, fmt.Errorf("EnumOutputs %d: %w", output, err)
	}
	defer comRelease(out)

	out1, err := queryInterface(out, &iidIDXGIOutput1)
	if err != nil {
		return nil, fmt.Errorf("QI IDXGIOutput1: %w", err)
	}
	defer comRelease(out1)

	var dupl uintptr
	if _, err := comCall(out1, dxgiOutput1DuplicateOutput,
		d.ptr, uintptr(unsafe.Pointer(&dupl))); err != nil {
		return nil, fmt.Errorf("DuplicateOutput: %w", err)
	}

	var desc outduplDesc
	comCallV(dupl, dxgiDuplGetDesc, uintptr(unsafe.Pointer(&desc)))

	du := &Duplication{
		ptr:    dupl,
		width:  int(desc.ModeDesc.Width),
		height: int(desc.ModeDesc.Height),
		format: desc.ModeDesc.Format,
	}
	if desc.ModeDesc.RefreshRate.Denominator != 0 {
		du.hz = float64(desc.ModeDesc.RefreshRate.Numerator) / float64(desc.ModeDesc.RefreshRate.Denominator)
	}
	return du, nil
}

func (du *Duplication) Width() int  { return du.width }
func (du *Duplication) Height() int { return du.height }

func (du *Duplication) Format() uint32 { return du.format }

// RefreshHz is the output's mode refresh rate, or 0 when unknown.
func (du *Duplication) RefreshHz() float64 { return du.hz }

// AcquireFrame waits up to timeoutMs for a new desktop frame. It returns the
// frame texture (an ID3D11Texture2D the caller must Release) and ok=true
// when a frame with fresh content arrived. After a true return the caller
// must call ReleaseFrame before the next acquire.
func (du *Duplication) AcquireFrame(timeoutMs uint32) (uintptr, bool, error) {
	var info outduplFrameInfo
	var resource uintptr
	hr, err := comCall(du.ptr, dxgiDuplAcquireNextFrame,
		uintptr(timeoutMs),
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&resource)))
	if err != nil {
		switch hr {
		case dxgiErrWaitTimeout:
			return 0, false, nil
		case dxgiErrAccessLost:
			return 0, false, ErrAccessLost
		}
		return 0, false, fmt.Errorf("AcquireNextFrame: %w", err)
	}
	if resource == 0 {
		return 0, false, nil
	}
	// Mouse-only updates carry no new desktop image.
	if info.AccumulatedFrames == 0 {
		comRelease(resource)
		du.ReleaseFrame()
		return 0, false, nil
	}
	tex, err := queryInterface(resource, &iidID3D11Texture2D)
	comRelease(resource)
	if err != nil {
		du.ReleaseFrame()
		return 0, false, fmt.Errorf("frame QI ID3D11Texture2D: %w", err)
	}
	return tex, true, nil
}

// ReleaseFrame returns the acquired frame to the duplication.
func (du *Duplication) ReleaseFrame() {
	comCall(du.ptr, dxgiDuplReleaseFrame)
}

func (du *Duplication) Close() {
	comRelease(du.ptr)
	du.ptr = 0
}
