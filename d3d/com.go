//go:build windows

package d3d

import (
	"fmt"
	"syscall"
	"unsafe"
)

// guid matches the Windows GUID layout.
type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// IUnknown vtable slots.
const (
	vtblQueryInterface = 0
	vtblAddRef         = 1
	vtblRelease        = 2
)

// vtblFn resolves a COM vtable function pointer by index.
func vtblFn(obj uintptr, idx int) uintptr {
	vtable := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtable + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
}

// comCall invokes a COM method returning an HRESULT. The raw HRESULT is
// returned alongside the error so callers can distinguish success codes like
// WAIT_TIMEOUT from S_OK.
func comCall(obj uintptr, idx int, args ...uintptr) (uint32, error) {
	all := make([]uintptr, 0, len(args)+1)
	all = append(all, obj)
	all = append(all, args...)
	hr, _, _ := syscall.SyscallN(vtblFn(obj, idx), all...)
	if int32(hr) < 0 {
		return uint32(hr), fmt.Errorf("HRESULT 0x%08X", uint32(hr))
	}
	return uint32(hr), nil
}

// comCallV invokes a void COM method (the ID3D11DeviceContext state setters).
func comCallV(obj uintptr, idx int, args ...uintptr) {
	all := make([]uintptr, 0, len(args)+1)
	all = append(all, obj)
	all = append(all, args...)
	syscall.SyscallN(vtblFn(obj, idx), all...)
}

func comRelease(obj uintptr) {
	if obj != 0 {
		syscall.SyscallN(vtblFn(obj, vtblRelease), obj)
	}
}

func queryInterface(obj uintptr, iid *guid) (uintptr, error) {
	var out uintptr
	if _, err := comCall(obj, vtblQueryInterface,
		uintptr(unsafe.Pointer(iid)),
		uintptr(unsafe.Pointer(&out)),
	); err != nil {
		return 0, err
	}
	return out, nil
}

// Release drops a COM reference held as a raw pointer. Exposed for callers
// that receive interface pointers from this package, such as the duplication
// source's acquired frame textures.
func Release(obj uintptr) {
	comRelease(obj)
}
