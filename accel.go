package hwaccel

// AccelerationType expresses how strongly the caller wants hardware
// acceleration, or which specific backend it requires.
type AccelerationType int

const (
	// AccelerationNone prefers software processing; no hardware backends
	// are attempted.
	AccelerationNone AccelerationType = iota
	// AccelerationAny tries the platform's preferred hardware backends and
	// falls back to software processing if none can be configured.
	AccelerationAny
	// AccelerationD3D11 requires DirectX 11 video acceleration.
	AccelerationD3D11
	// AccelerationVAAPI requires VAAPI.
	AccelerationVAAPI
	// AccelerationMFX requires libmfx (Intel MediaSDK / oneVPL).
	AccelerationMFX
	// AccelerationCUDA requires NVIDIA CUDA/NVDEC.
	AccelerationCUDA
)

func (a AccelerationType) String() string {
	switch a {
	case AccelerationNone:
		return "none"
	case AccelerationAny:
		return "any"
	case AccelerationD3D11:
		return "d3d11"
	case AccelerationVAAPI:
		return "vaapi"
	case AccelerationMFX:
		return "mfx"
	case AccelerationCUDA:
		return "cuda"
	default:
		return "unknown"
	}
}

// AccelerationTypeForDevice maps a backend device type to the acceleration
// type it implements. Unknown device types map to AccelerationNone.
func AccelerationTypeForDevice(t DeviceType) AccelerationType {
	switch t {
	case DeviceD3D11VA:
		return AccelerationD3D11
	case DeviceVAAPI:
		return AccelerationVAAPI
	case DeviceQSV:
		return AccelerationMFX
	case DeviceCUDA:
		return AccelerationCUDA
	default:
		return AccelerationNone
	}
}
