//go:build windows

package d3d

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modD3DCompiler = windows.NewLazySystemDLL("d3dcompiler_47.dll")
	procD3DCompile = modD3DCompiler.NewProc("D3DCompile")
)

// Full-screen triangle pipeline. The vertex shader synthesizes a single
// oversized triangle from SV_VertexID, so no vertex buffer or input layout
// is needed.
const shaderSource = `
Texture2D frameTex : register(t0);
SamplerState frameSamp : register(s0);

struct VSOut {
	float4 pos : SV_Position;
	float2 uv : TEXCOORD0;
};

VSOut vs_main(uint id : SV_VertexID) {
	VSOut o;
	float2 uv = float2((id << 1) & 2, id & 2);
	o.pos = float4(uv * float2(2, -2) + float2(-1, 1), 0, 1);
	o.uv = uv;
	return o;
}

float4 ps_main(VSOut i) : SV_Target {
	return frameTex.Sample(frameSamp, i.uv);
}
`

// Pipeline holds the compiled shaders and sampler for the textured quad.
type Pipeline struct {
	vs      uintptr // ID3D11VertexShader
	ps      uintptr // ID3D11PixelShader
	sampler uintptr // ID3D11SamplerState
}

// NewPipeline compiles the built-in shaders and creates the sampler state.
func (d *Device) NewPipeline() (*Pipeline, error) {
	p := &Pipeline{}

	vsBlob, err := compileShader(shaderSource, "vs_main", "vs_5_0")
	if err != nil {
		return nil, fmt.Errorf("compile vertex shader: %w", err)
	}
	defer comRelease(vsBlob)
	bc, sz := blobBytes(vsBlob)
	if _, err := comCall(d.ptr, d3d11DeviceCreateVertexShader,
		bc, sz, 0, uintptr(unsafe.Pointer(&p.vs))); err != nil {
		return nil, fmt.Errorf("CreateVertexShader: %w", err)
	}

	psBlob, err := compileShader(shaderSource, "ps_main", "ps_5_0")
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("compile pixel shader: %w", err)
	}
	defer comRelease(psBlob)
	bc, sz = blobBytes(psBlob)
	if _, err := comCall(d.ptr, d3d11DeviceCreatePixelShader,
		bc, sz, 0, uintptr(unsafe.Pointer(&p.ps))); err != nil {
		p.Close()
		return nil, fmt.Errorf("CreatePixelShader: %w", err)
	}

	sd := samplerDesc{
		Filter:   d3d11FilterMinMagMipLinear,
		AddressU: d3d11TextureAddressClamp,
		AddressV: d3d11TextureAddressClamp,
		AddressW: d3d11TextureAddressClamp,
		MaxLOD:   3.402823466e38,
	}
	if _, err := comCall(d.ptr, d3d11DeviceCreateSamplerState,
		uintptr(unsafe.Pointer(&sd)), uintptr(unsafe.Pointer(&p.sampler))); err != nil {
		p.Close()
		return nil, fmt.Errorf("CreateSamplerState: %w", err)
	}
	return p, nil
}

// Bind sets the shaders, sampler, and topology on the immediate context.
func (d *Device) Bind(p *Pipeline) {
	comCallV(d.ctx, d3d11CtxIASetInputLayout, 0)
	comCallV(d.ctx, d3d11CtxIASetPrimitiveTopology, d3dPrimitiveTopologyTriangleList)
	comCallV(d.ctx, d3d11CtxVSSetShader, p.vs, 0, 0)
	comCallV(d.ctx, d3d11CtxPSSetShader, p.ps, 0, 0)
	comCallV(d.ctx, d3d11CtxPSSetSamplers, 0, 1, uintptr(unsafe.Pointer(&p.sampler)))
}

func (p *Pipeline) Close() {
	comRelease(p.sampler)
	comRelease(p.ps)
	comRelease(p.vs)
	p.sampler = 0
	p.ps = 0
	p.vs = 0
}

func compileShader(src, entry, target string) (uintptr, error) {
	srcBytes := []byte(src)
	entryBytes := append([]byte(entry), 0)
	targetBytes := append([]byte(target), 0)
	var code, errs uintptr
	hr, _, _ := procD3DCompile.Call(
		uintptr(unsafe.Pointer(&srcBytes[0])),
		uintptr(len(srcBytes)),
		0, 0, 0,
		uintptr(unsafe.Pointer(&entryBytes[0])),
		uintptr(unsafe.Pointer(&targetBytes[0])),
		d3dcompileEnableStrictness|d3dcompileOptimizationLevel3,
		0,
		uintptr(unsafe.Pointer(&code)),
		uintptr(unsafe.Pointer(&errs)),
	)
	if int32(hr) < 0 {
		msg := "no diagnostics"
		if errs != 0 {
			ptr, sz := blobBytes(errs)
			msg = string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), sz))
			comRelease(errs)
		}
		return 0, fmt.Errorf("D3DCompile %s: HRESULT 0x%08X: %s", entry, uint32(hr), msg)
	}
	if errs != 0 {
		comRelease(errs)
	}
	return code, nil
}

func blobBytes(blob uintptr) (uintptr, uintptr) {
	ptr, _, _ := syscall.SyscallN(vtblFn(blob, d3dBlobGetBufferPointer), blob)
	sz, _, _ := syscall.SyscallN(vtblFn(blob, d3dBlobGetBufferSize), blob)
	return ptr, sz
}
