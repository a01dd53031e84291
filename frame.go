package hwaccel

// PixelFormat represents video pixel formats, both software (CPU-resident
// planar/packed layouts) and hardware (opaque GPU surface handles).
type PixelFormat int

const (
	// PixelFormatNone marks an unset format. Frame pool fields left at
	// PixelFormatNone are filled with defaults before initialization.
	PixelFormatNone PixelFormat = iota

	// Software formats.
	PixelFormatI420   // YUV 4:2:0 planar (Y + U + V)
	PixelFormatNV12   // YUV 4:2:0 semi-planar (Y + interleaved UV)
	PixelFormatP010   // 10-bit NV12
	PixelFormatRGB24  // Packed RGB, 3 bytes per pixel
	PixelFormatBGRA32 // Packed BGRA, 4 bytes per pixel

	// Hardware surface formats. Data lives on the device; the only valid
	// operations are transfers and mapped access through a frame pool.
	PixelFormatVAAPI
	PixelFormatD3D11
	PixelFormatDXVA2
	PixelFormatQSV
	PixelFormatCUDA
	PixelFormatVideoToolbox
)

// DefaultSWFormat is the software format assigned to frame pools and codec
// contexts that do not specify one.
const DefaultSWFormat = PixelFormatNV12

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatNone:
		return "none"
	case PixelFormatI420:
		return "I420"
	case PixelFormatNV12:
		return "NV12"
	case PixelFormatP010:
		return "P010"
	case PixelFormatRGB24:
		return "RGB24"
	case PixelFormatBGRA32:
		return "BGRA32"
	case PixelFormatVAAPI:
		return "vaapi"
	case PixelFormatD3D11:
		return "d3d11"
	case PixelFormatDXVA2:
		return "dxva2"
	case PixelFormatQSV:
		return "qsv"
	case PixelFormatCUDA:
		return "cuda"
	case PixelFormatVideoToolbox:
		return "videotoolbox"
	default:
		return "unknown"
	}
}

// Hardware reports whether the format is an opaque hardware surface format.
func (p PixelFormat) Hardware() bool {
	switch p {
	case PixelFormatVAAPI, PixelFormatD3D11, PixelFormatDXVA2, PixelFormatQSV, PixelFormatCUDA,
		PixelFormatVideoToolbox:
		return true
	default:
		return false
	}
}

// PlaneCount returns the number of planes for a software format, 0 for
// hardware and unknown formats.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatI420:
		return 3
	case PixelFormatNV12, PixelFormatP010:
		return 2
	case PixelFormatRGB24, PixelFormatBGRA32:
		return 1
	default:
		return 0
	}
}

// VideoFrame represents a raw software video frame as marshalled by the
// legacy decoder/encoder entry points.
// The Data slices may point to external memory owned by the decode session.
// Callers must copy if they need the data beyond the next grab.
type VideoFrame struct {
	Data     [][]byte    // Plane data
	Stride   []int       // Stride for each plane in bytes
	Width    int         // Frame width in pixels
	Height   int         // Frame height in pixels
	Channels int         // Interleaved channel count (legacy API reports this)
	Format   PixelFormat // Pixel format
}

// Clone creates a deep copy of the video frame.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Data:     make([][]byte, len(f.Data)),
		Stride:   make([]int, len(f.Stride)),
		Width:    f.Width,
		Height:   f.Height,
		Channels: f.Channels,
		Format:   f.Format,
	}
	copy(clone.Stride, f.Stride)
	for i, plane := range f.Data {
		if plane != nil {
			clone.Data[i] = make([]byte, len(plane))
			copy(clone.Data[i], plane)
		}
	}
	return clone
}
