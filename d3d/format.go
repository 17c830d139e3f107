package d3d

// DXGI pixel formats (DXGI_FORMAT). Kept outside the windows-only files so
// platform-neutral wiring can name a format without building the bindings.
const (
	FormatR16G16B16A16Float uint32 = 10
	FormatR8G8B8A8Unorm     uint32 = 28
	FormatB8G8R8A8Unorm     uint32 = 87
)
