//go:build windows

package d3d

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modD3D11              = windows.NewLazySystemDLL("d3d11.dll")
	procD3D11CreateDevice = modD3D11.NewProc("D3D11CreateDevice")
)

// Device wraps an ID3D11Device and its immediate context.
type Device struct {
	ptr uintptr // ID3D11Device
	ctx uintptr // ID3D11DeviceContext
}

// NewDevice creates a hardware D3D11 device with BGRA support, which both the
// swapchain and the desktop duplication paths require.
func NewDevice() (*Device, error) {
	featureLevels := []uint32{d3dFeatureLevel11_1, d3dFeatureLevel11_0}
	var dev, ctx uintptr
	var chosen uint32
	hr, _, _ := procD3D11CreateDevice.Call(
		0, // default adapter
		d3dDriverTypeHardware,
		0,
		d3d11CreateDeviceBGRASupport,
		uintptr(unsafe.Pointer(&featureLevels[0])),
		uintptr(len(featureLevels)),
		d3d11SDKVersion,
		uintptr(unsafe.Pointer(&dev)),
		uintptr(unsafe.Pointer(&chosen)),
		uintptr(unsafe.Pointer(&ctx)),
	)
	if int32(hr) < 0 {
		return nil, fmt.Errorf("D3D11CreateDevice: HRESULT 0x%08X", uint32(hr))
	}
	return &Device{ptr: dev, ctx: ctx}, nil
}

func (d *Device) Close() {
	comRelease(d.ctx)
	comRelease(d.ptr)
	d.ctx = 0
	d.ptr = 0
}

// SharedTexture is a keyed-mutex shared render target. Handle is the
// cross-device DXGI shared handle callers publish for consumers to open.
type SharedTexture struct {
	Texture uintptr // ID3D11Texture2D
	Mutex   uintptr // IDXGIKeyedMutex
	Handle  uintptr
}

func (t *SharedTexture) Close() {
	comRelease(t.Mutex)
	comRelease(t.Texture)
	t.Mutex = 0
	t.Texture = 0
	t.Handle = 0
}

// CreateSharedTexture creates a GPU-default texture with the keyed-mutex
// sharing flag and returns its shared handle and mutex interface.
func (d *Device) CreateSharedTexture(width, height int, format uint32) (*SharedTexture, error) {
	desc := texture2DDesc{
		Width:       uint32(width),
		Height:      uint32(height),
		MipLevels:   1,
		ArraySize:   1,
		Format:      format,
		SampleCount: 1,
		Usage:       d3d11UsageDefault,
		BindFlags:   d3d11BindShaderResource | d3d11BindRenderTarget,
		MiscFlags:   d3d11ResourceMiscSharedKeyedMutex,
	}
	var tex uintptr
	if _, err := comCall(d.ptr, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&tex))); err != nil {
		return nil, fmt.Errorf("CreateTexture2D shared: %w", err)
	}

	res, err := queryInterface(tex, &iidIDXGIResource)
	if err != nil {
		comRelease(tex)
		return nil, fmt.Errorf("shared texture QI IDXGIResource: %w", err)
	}
	var handle uintptr
	_, err = comCall(res, dxgiResourceGetSharedHandle, uintptr(unsafe.Pointer(&handle)))
	comRelease(res)
	if err != nil {
		comRelease(tex)
		return nil, fmt.Errorf("GetSharedHandle: %w", err)
	}

	mtx, err := queryInterface(tex, &iidIDXGIKeyedMutex)
	if err != nil {
		comRelease(tex)
		return nil, fmt.Errorf("shared texture QI IDXGIKeyedMutex: %w", err)
	}
	return &SharedTexture{Texture: tex, Mutex: mtx, Handle: handle}, nil
}

// BoundTexture is a consumer-side view of a shared texture opened by handle.
type BoundTexture struct {
	Texture uintptr // ID3D11Texture2D
	SRV     uintptr // ID3D11ShaderResourceView
	Mutex   uintptr // IDXGIKeyedMutex
}

func (t *BoundTexture) Close() {
	comRelease(t.Mutex)
	comRelease(t.SRV)
	comRelease(t.Texture)
	t.Mutex = 0
	t.SRV = 0
	t.Texture = 0
}

// OpenSharedTexture opens a shared handle published by another device and
// builds the shader resource view and keyed mutex needed to sample it.
func (d *Device) OpenSharedTexture(handle uintptr) (*BoundTexture, error) {
	var tex uintptr
	if _, err := comCall(d.ptr, d3d11DeviceOpenSharedResource,
		handle,
		uintptr(unsafe.Pointer(&iidID3D11Texture2D)),
		uintptr(unsafe.Pointer(&tex))); err != nil {
		return nil, fmt.Errorf("OpenSharedResource: %w", err)
	}
	srv, err := d.createSRV(tex)
	if err != nil {
		comRelease(tex)
		return nil, err
	}
	mtx, err := queryInterface(tex, &iidIDXGIKeyedMutex)
	if err != nil {
		comRelease(srv)
		comRelease(tex)
		return nil, fmt.Errorf("opened texture QI IDXGIKeyedMutex: %w", err)
	}
	return &BoundTexture{Texture: tex, SRV: srv, Mutex: mtx}, nil
}

// DynamicTexture is a CPU-writable texture for the byte-copy upload path.
type DynamicTexture struct {
	Texture uintptr // ID3D11Texture2D
	SRV     uintptr // ID3D11ShaderResourceView
	Width   int
	Height  int
}

func (t *DynamicTexture) Close() {
	comRelease(t.SRV)
	comRelease(t.Texture)
	t.SRV = 0
	t.Texture = 0
}

func (d *Device) CreateDynamicTexture(width, height int, format uint32) (*DynamicTexture, error) {
	desc := texture2DDesc{
		Width:          uint32(width),
		Height:         uint32(height),
		MipLevels:      1,
		ArraySize:      1,
		Format:         format,
		SampleCount:    1,
		Usage:          d3d11UsageDynamic,
		BindFlags:      d3d11BindShaderResource,
		CPUAccessFlags: d3d11CPUAccessWrite,
	}
	var tex uintptr
	if _, err := comCall(d.ptr, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&tex))); err != nil {
		return nil, fmt.Errorf("CreateTexture2D dynamic: %w", err)
	}
	srv, err := d.createSRV(tex)
	if err != nil {
		comRelease(tex)
		return nil, err
	}
	return &DynamicTexture{Texture: tex, SRV: srv, Width: width, Height: height}, nil
}

// UploadDynamic maps the texture with WRITE_DISCARD and copies pix row by
// row, honoring the driver's row pitch.
func (d *Device) UploadDynamic(tex *DynamicTexture, pix []byte) error {
	var mapped mappedSubresource
	if _, err := comCall(d.ctx, d3d11CtxMap,
		tex.Texture, 0, d3d11MapWriteDiscard, 0,
		uintptr(unsafe.Pointer(&mapped))); err != nil {
		return fmt.Errorf("Map dynamic: %w", err)
	}
	rowBytes := tex.Width * 4
	for y := 0; y < tex.Height; y++ {
		src := pix[y*rowBytes : (y+1)*rowBytes]
		dst := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData+uintptr(y)*uintptr(mapped.RowPitch))), rowBytes)
		copy(dst, src)
	}
	comCallV(d.ctx, d3d11CtxUnmap, tex.Texture, 0)
	return nil
}

// StagingTexture is a CPU-readable texture used to read back duplicated
// desktop frames on the byte-copy capture path.
type StagingTexture struct {
	Texture uintptr // ID3D11Texture2D
	Width   int
	Height  int
}

func (t *StagingTexture) Close() {
	comRelease(t.Texture)
	t.Texture = 0
}

func (d *Device) CreateStagingTexture(width, height int, format uint32) (*StagingTexture, error) {
	desc := texture2DDesc{
		Width:          uint32(width),
		Height:         uint32(height),
		MipLevels:      1,
		ArraySize:      1,
		Format:         format,
		SampleCount:    1,
		Usage:          d3d11UsageStaging,
		CPUAccessFlags: d3d11CPUAccessRead,
	}
	var tex uintptr
	if _, err := comCall(d.ptr, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&tex))); err != nil {
		return nil, fmt.Errorf("CreateTexture2D staging: %w", err)
	}
	return &StagingTexture{Texture: tex, Width: width, Height: height}, nil
}

// MapRead maps a staging texture for CPU reads and returns the mapped base
// pointer and row pitch. The caller must UnmapRead when done.
func (d *Device) MapRead(tex *StagingTexture) (uintptr, int, error) {
	var mapped mappedSubresource
	if _, err := comCall(d.ctx, d3d11CtxMap,
		tex.Texture, 0, d3d11MapRead, 0,
		uintptr(unsafe.Pointer(&mapped))); err != nil {
		return 0, 0, fmt.Errorf("Map staging: %w", err)
	}
	return mapped.PData, int(mapped.RowPitch), nil
}

func (d *Device) UnmapRead(tex *StagingTexture) {
	comCallV(d.ctx, d3d11CtxUnmap, tex.Texture, 0)
}

// CopyResource copies the full contents of src into dst on the GPU.
func (d *Device) CopyResource(dst, src uintptr) {
	comCallV(d.ctx, d3d11CtxCopyResource, dst, src)
}

// SetViewport sets a full-window viewport.
func (d *Device) SetViewport(width, height int) {
	vp := viewport{
		Width:    float32(width),
		Height:   float32(height),
		MaxDepth: 1,
	}
	comCallV(d.ctx, d3d11CtxRSSetViewports, 1, uintptr(unsafe.Pointer(&vp)))
}

// DrawTexture binds an SRV to the pixel shader and issues the full-screen
// triangle draw. The pipeline must already be bound.
func (d *Device) DrawTexture(srv uintptr) {
	comCallV(d.ctx, d3d11CtxPSSetShaderResources, 0, 1, uintptr(unsafe.Pointer(&srv)))
	comCallV(d.ctx, d3d11CtxDraw, 3, 0)
}

func (d *Device) createSRV(tex uintptr) (uintptr, error) {
	var srv uintptr
	if _, err := comCall(d.ptr, d3d11DeviceCreateShaderResourceView,
		tex, 0, uintptr(unsafe.Pointer(&srv))); err != nil {
		return 0, fmt.Errorf("CreateShaderResourceView: %w", err)
	}
	return srv, nil
}
