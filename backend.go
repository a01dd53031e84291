package hwaccel

import "errors"

// Common errors
var (
	ErrBackendNotAvailable = errors.New("acceleration backend not available")
	ErrDeviceRejected      = errors.New("device rejected by policy")
	ErrCodecNotFound       = errors.New("no codec matches id, backend and policy")
	ErrPoolFailed          = errors.New("frame pool allocation failed")
)

// DeviceType identifies a hardware device backend in the underlying library.
type DeviceType int

const (
	DeviceNone DeviceType = iota
	DeviceVAAPI
	DeviceD3D11VA
	DeviceDXVA2
	DeviceQSV
	DeviceCUDA
	DeviceVideoToolbox
)

func (t DeviceType) String() string {
	switch t {
	case DeviceVAAPI:
		return "vaapi"
	case DeviceD3D11VA:
		return "d3d11va"
	case DeviceDXVA2:
		return "dxva2"
	case DeviceQSV:
		return "qsv"
	case DeviceCUDA:
		return "cuda"
	case DeviceVideoToolbox:
		return "videotoolbox"
	default:
		return "none"
	}
}

// CodecID identifies the compressed bitstream format, independent of which
// implementation (software or hardware) handles it.
type CodecID int

const (
	CodecUnknown CodecID = iota
	CodecH264
	CodecHEVC
	CodecVP8
	CodecVP9
	CodecAV1
	CodecMJPEG
)

func (c CodecID) String() string {
	switch c {
	case CodecH264:
		return "h264"
	case CodecHEVC:
		return "hevc"
	case CodecVP8:
		return "vp8"
	case CodecVP9:
		return "vp9"
	case CodecAV1:
		return "av1"
	case CodecMJPEG:
		return "mjpeg"
	default:
		return "unknown"
	}
}

// HWConfigMethod is a bitmask describing how a codec implementation can be
// supplied with hardware resources.
type HWConfigMethod int

const (
	// MethodHWDeviceCtx means the codec accepts a bare device context.
	MethodHWDeviceCtx HWConfigMethod = 1 << iota
	// MethodHWFramesCtx means the codec requires a provisioned frame pool.
	MethodHWFramesCtx
)

// HWConfig is one hardware configuration descriptor advertised by a codec.
type HWConfig struct {
	DeviceType DeviceType
	Format     PixelFormat
	Methods    HWConfigMethod
}

// CodecDescriptor is a read-only entry of the backend's codec registry.
type CodecDescriptor struct {
	Name         string
	ID           CodecID
	Encoder      bool // encoder vs decoder implementation
	Experimental bool
	PixelFormats []PixelFormat // supported formats, in preference order
	HWConfigs    []HWConfig    // hardware configuration descriptors
}

// FrameMapFlag controls how derived frame pools map the underlying frames.
type FrameMapFlag int

const (
	FrameMapRead FrameMapFlag = 1 << iota
	FrameMapWrite
)

// DeviceRef is a reference-counted handle to a backend device session.
// Close releases this reference; the backend frees the session when the last
// reference is gone.
type DeviceRef interface {
	// Type reports the device type the session was created for.
	Type() DeviceType
	// Name reports the backend's device/driver name, or "" when the
	// backend cannot determine it.
	Name() string
	Close()
}

// FramePoolParams are the mutable parameters of a frame pool skeleton.
// They must be fully populated before the pool is initialized and are
// read-only afterwards.
type FramePoolParams struct {
	Width    int
	Height   int
	Format   PixelFormat // hardware surface format
	SWFormat PixelFormat // software format frames are transferred to/from
	PoolSize int         // number of preallocated frames
}

// FramePoolRef is a reference-counted handle to a backend frame pool.
type FramePoolRef interface {
	// Params returns the pool parameters. Mutations are only meaningful
	// before the pool is initialized.
	Params() *FramePoolParams
	Close()
}

// CodecContext mirrors the decode/encode context state the negotiation
// subsystem reads and writes. The embedding decoder or encoder owns it.
type CodecContext struct {
	Codec    *CodecDescriptor
	Width    int
	Height   int
	SWFormat PixelFormat

	// Device is the acceleration device attached during negotiation,
	// nil for software processing.
	Device *Device
	// Frames is the frame pool provisioned by format selection, nil until
	// SelectFormat configures a hardware format that needs one.
	Frames *FramePool

	// Native is the backend's own codec context handle when one exists
	// (the FFmpeg backend needs it to query recommended frame pool
	// parameters). Zero for backends without native contexts.
	Native uintptr
}

// Backend abstracts the native acceleration/codec library. All calls are
// synchronous and may block for the duration of the underlying operation.
// Implementations signal "not compiled in / not installed" by returning an
// error from the creation calls; callers treat every error as non-fatal and
// move on to the next candidate.
type Backend interface {
	// DeviceTypeByName resolves a backend name ("vaapi", "d3d11va", ...)
	// to a device type, DeviceNone when unrecognized.
	DeviceTypeByName(name string) DeviceType

	// CreateDevice opens a device session of the given type. An empty path
	// selects the platform default device.
	CreateDevice(t DeviceType, path string) (DeviceRef, error)

	// CreateDerivedDevice synthesizes a session of type t on top of an
	// already-initialized child session. The backend takes its own
	// reference on child; the caller keeps ownership of its reference.
	CreateDerivedDevice(t DeviceType, child DeviceRef) (DeviceRef, error)

	// NativeFormat reports the fixed hardware surface format for device
	// types whose codecs cannot be probed through hardware configuration
	// descriptors (CUDA encoders). ok is false for types that must be
	// probed normally.
	NativeFormat(t DeviceType) (format PixelFormat, ok bool)

	// RecommendedFramePool asks the codec for backend-recommended frame
	// pool parameters against the given device and hardware format.
	RecommendedFramePool(ctx *CodecContext, dev DeviceRef, format PixelFormat) (FramePoolRef, error)

	// AllocFramePool allocates a bare, uninitialized pool skeleton.
	AllocFramePool(dev DeviceRef) (FramePoolRef, error)

	// InitFramePool finalizes a pool skeleton. The skeleton's parameters
	// must be fully populated.
	InitFramePool(pool FramePoolRef) error

	// DeriveFramePool creates a pool of dev's type mapped onto an
	// initialized source pool of a different device type.
	DeriveFramePool(dev DeviceRef, format PixelFormat, src FramePoolRef, flags FrameMapFlag) (FramePoolRef, error)

	// ValidHardwareFormats lists the hardware surface formats the device
	// can allocate, in preference order.
	ValidHardwareFormats(dev DeviceRef) []PixelFormat

	// Codecs iterates the global codec registry.
	Codecs() []*CodecDescriptor
}
