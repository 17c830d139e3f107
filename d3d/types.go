//go:build windows

package d3d

// D3D11 device creation.
const (
	d3dDriverTypeHardware        = 1
	d3d11SDKVersion              = 7
	d3dFeatureLevel11_0          = 0xb000
	d3dFeatureLevel11_1          = 0xb100
	d3d11CreateDeviceBGRASupport = 0x20
)

// D3D11_TEXTURE2D_DESC fields.
const (
	d3d11UsageDefault = 0
	d3d11UsageDynamic = 2
	d3d11UsageStaging = 3

	d3d11BindShaderResource = 0x8
	d3d11BindRenderTarget   = 0x20

	d3d11CPUAccessWrite = 0x10000
	d3d11CPUAccessRead  = 0x20000

	d3d11ResourceMiscSharedKeyedMutex = 0x10

	d3d11MapRead         = 1
	d3d11MapWriteDiscard = 4
)

// Pipeline state.
const (
	d3dPrimitiveTopologyTriangleList = 4

	d3d11FilterMinMagMipLinear = 0x15
	d3d11TextureAddressClamp   = 3
)

// Swapchain (DXGI_SWAP_CHAIN_DESC1 fields).
const (
	dxgiUsageRenderTargetOutput = 0x20
	dxgiScalingStretch          = 0
	dxgiSwapEffectFlipDiscard   = 4
	dxgiAlphaModeIgnore         = 3
)

// DXGI failure HRESULTs.
const (
	dxgiErrWaitTimeout   = 0x887A0027
	dxgiErrAccessLost    = 0x887A0026
	dxgiErrDeviceRemoved = 0x887A0005
	dxgiErrDeviceReset   = 0x887A0007
)

// D3DCompile flags.
const (
	d3dcompileEnableStrictness   = 0x800
	d3dcompileOptimizationLevel3 = 0x8000
)

// COM vtable indices, counted from IUnknown. Slot comments name the method.
const (
	// ID3D11Device
	d3d11DeviceCreateTexture2D          = 5
	d3d11DeviceCreateShaderResourceView = 7
	d3d11DeviceCreateRenderTargetView   = 9
	d3d11DeviceCreateVertexShader       = 12
	d3d11DeviceCreatePixelShader        = 15
	d3d11DeviceCreateSamplerState       = 23
	d3d11DeviceOpenSharedResource       = 28

	// ID3D11DeviceContext
	d3d11CtxPSSetShaderResources   = 8
	d3d11CtxPSSetShader            = 9
	d3d11CtxPSSetSamplers          = 10
	d3d11CtxVSSetShader            = 11
	d3d11CtxDraw                   = 13
	d3d11CtxMap                    = 14
	d3d11CtxUnmap                  = 15
	d3d11CtxIASetInputLayout       = 17
	d3d11CtxIASetPrimitiveTopology = 24
	d3d11CtxOMSetRenderTargets     = 33
	d3d11CtxRSSetViewports         = 44
	d3d11CtxCopyResource           = 47
	d3d11CtxClearRenderTargetView  = 50

	// IDXGIObject
	dxgiObjectGetParent = 6

	// IDXGIDevice
	dxgiDeviceGetAdapter = 7

	// IDXGIAdapter
	dxgiAdapterEnumOutputs = 7

	// IDXGIOutput1
	dxgiOutput1DuplicateOutput = 22

	// IDXGIOutputDuplication
	dxgiDuplGetDesc          = 7
	dxgiDuplAcquireNextFrame = 8
	dxgiDuplReleaseFrame     = 14

	// IDXGIFactory2
	dxgiFactory2CreateSwapChainForHwnd = 15

	// IDXGISwapChain
	dxgiSwapChainPresent       = 8
	dxgiSwapChainGetBuffer     = 9
	dxgiSwapChainResizeBuffers = 13

	// IDXGIResource
	dxgiResourceGetSharedHandle = 8

	// IDXGIKeyedMutex
	dxgiKeyedMutexAcquireSync = 8
	dxgiKeyedMutexReleaseSync = 9

	// ID3DBlob
	d3dBlobGetBufferPointer = 3
	d3dBlobGetBufferSize    = 4
)

var (
	iidIDXGIDevice     = guid{0x54ec77fa, 0x1377, 0x44e6, [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidIDXGIOutput1    = guid{0x00cddea8, 0x939b, 0x4b83, [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidIDXGIFactory2   = guid{0x50c83a1c, 0xe072, 0x4c48, [8]byte{0x87, 0xb0, 0x36, 0x30, 0xfa, 0x36, 0xa6, 0xd0}}
	iidIDXGIResource   = guid{0x035f3ab4, 0x482e, 0x4e50, [8]byte{0xb4, 0x1f, 0x8a, 0x7f, 0x8b, 0xd8, 0x96, 0x0b}}
	iidIDXGIKeyedMutex = guid{0x9d8e1289, 0xd7b3, 0x465f, [8]byte{0x81, 0x26, 0x25, 0x0e, 0x34, 0x9a, 0xf8, 0x5d}}
	iidID3D11Texture2D = guid{0x6f15aaf2, 0xd208, 0x4e89, [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

// texture2DDesc matches D3D11_TEXTURE2D_DESC.
type texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32 // DXGI_SAMPLE_DESC.Count
	SampleQuality  uint32 // DXGI_SAMPLE_DESC.Quality
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// mappedSubresource matches D3D11_MAPPED_SUBRESOURCE.
type mappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// viewport matches D3D11_VIEWPORT.
type viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

// samplerDesc matches D3D11_SAMPLER_DESC.
type samplerDesc struct {
	Filter         uint32
	AddressU       uint32
	AddressV       uint32
	AddressW       uint32
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc uint32
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// swapChainDesc1 matches DXGI_SWAP_CHAIN_DESC1.
type swapChainDesc1 struct {
	Width       uint32
	Height      uint32
	Format      uint32
	Stereo      int32
	SampleCount uint32 // DXGI_SAMPLE_DESC.Count
	SampleQual  uint32 // DXGI_SAMPLE_DESC.Quality
	BufferUsage uint32
	BufferCount uint32
	Scaling     uint32
	SwapEffect  uint32
	AlphaMode   uint32
	Flags       uint32
}

type dxgiRational struct {
	Numerator   uint32
	Denominator uint32
}

// modeDesc matches DXGI_MODE_DESC.
type modeDesc struct {
	Width            uint32
	Height           uint32
	RefreshRate      dxgiRational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

// outduplDesc matches DXGI_OUTDUPL_DESC.
type outduplDesc struct {
	ModeDesc                   modeDesc
	Rotation                   uint32
	DesktopImageInSystemMemory int32 // BOOL
}

// outduplFrameInfo matches DXGI_OUTDUPL_FRAME_INFO.
type outduplFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerPositionX          int32
	PointerPositionY          int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}
