//go:build windows

package d3d

import (
	"fmt"
	"unsafe"
)

// SwapChain is a flip-model swapchain bound to an overlay window.
type SwapChain struct {
	dev    *Device
	ptr    uintptr // IDXGISwapChain1
	rtv    uintptr // ID3D11RenderTargetView
	format uint32
	width  int
	height int
}

// NewSwapChain creates a two-buffer flip-discard swapchain for hwnd. The
// factory is reached through the device's DXGI adapter so the swapchain and
// the textures it presents share one device.
func (d *Device) NewSwapChain(hwnd uintptr, width, height int, format uint32) (*SwapChain, error) {
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

	var factory uintptr
	if _, err := comCall(adapter, dxgiObjectGetParent,
		uintptr(unsafe.Pointer(&iidIDXGIFactory2)),
		uintptr(unsafe.Pointer(&factory))); err != nil {
		return nil, fmt.Errorf("GetParent IDXGIFactory2: %w", err)
	}
	defer comRelease(factory)

	desc := swapChainDesc1{
		Width:       uint32(width),
		Height:      uint32(height),
		Format:      format,
		SampleCount: 1,
		BufferUsage: dxgiUsageRenderTargetOutput,
		BufferCount: 2,
		Scaling:     dxgiScalingStretch,
		SwapEffect:  dxgiSwapEffectFlipDiscard,
		AlphaMode:   dxgiAlphaModeIgnore,
	}
	var sc uintptr
	if _, err := comCall(factory, dxgiFactory2CreateSwapChainForHwnd,
		d.ptr, hwnd,
		uintptr(unsafe.Pointer(&desc)),
		0, 0,
		uintptr(unsafe.Pointer(&sc))); err != nil {
		return nil, fmt.Errorf("CreateSwapChainForHwnd: %w", err)
	}

	s := &SwapChain{dev: d, ptr: sc, format: format, width: width, height: height}
	if err := s.createRTV(); err != nil {
		comRelease(sc)
		return nil, err
	}
	return s, nil
}

func (s *SwapChain) createRTV() error {
	var backbuf uintptr
	if _, err := comCall(s.ptr, dxgiSwapChainGetBuffer,
		0,
		uintptr(unsafe.Pointer(&iidID3D11Texture2D)),
		uintptr(unsafe.Pointer(&backbuf))); err != nil {
		return fmt.Errorf("GetBuffer: %w", err)
	}
	defer comRelease(backbuf)

	var rtv uintptr
	if _, err := comCall(s.dev.ptr, d3d11DeviceCreateRenderTargetView,
		backbuf, 0, uintptr(unsafe.Pointer(&rtv))); err != nil {
		return fmt.Errorf("CreateRenderTargetView: %w", err)
	}
	s.rtv = rtv
	return nil
}

// Resize releases the backbuffer view, resizes the swapchain buffers, and
// recreates the view. Zero dimensions are the caller's problem; the window
// loop filters minimize events before calling this.
func (s *SwapChain) Resize(width, height int) error {
	comCallV(s.dev.ctx, d3d11CtxOMSetRenderTargets, 0, 0, 0)
	comRelease(s.rtv)
	s.rtv = 0
	if _, err := comCall(s.ptr, dxgiSwapChainResizeBuffers,
		0, uintptr(width), uintptr(height), uintptr(s.format), 0); err != nil {
		return fmt.Errorf("ResizeBuffers %dx%d: %w", width, height, err)
	}
	s.width = width
	s.height = height
	return s.createRTV()
}

// Bind sets the backbuffer as the render target, clears it to transparent
// black, and sets a matching viewport.
func (s *SwapChain) Bind() {
	var clear [4]float32
	comCallV(s.dev.ctx, d3d11CtxOMSetRenderTargets, 1, uintptr(unsafe.Pointer(&s.rtv)), 0)
	comCallV(s.dev.ctx, d3d11CtxClearRenderTargetView, s.rtv, uintptr(unsafe.Pointer(&clear)))
	s.dev.SetViewport(s.width, s.height)
}

// Present presents without vsync wait.
func (s *SwapChain) Present() error {
	if _, err := comCall(s.ptr, dxgiSwapChainPresent, 0, 0); err != nil {
		return fmt.Errorf("Present: %w", err)
	}
	return nil
}

func (s *SwapChain) Width() int  { return s.width }
func (s *SwapChain) Height() int { return s.height }

func (s *SwapChain) Close() {
	comRelease(s.rtv)
	comRelease(s.ptr)
	s.rtv = 0
	s.ptr = 0
}
