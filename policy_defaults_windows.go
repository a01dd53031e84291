//go:build windows

package hwaccel

// Built-in Windows policy defaults.

func defaultDecoderAccelerators(a AccelerationType) string {
	switch a {
	case AccelerationAny:
		return "d3d11va"
	case AccelerationD3D11:
		return "d3d11va"
	case AccelerationMFX:
		// "qsv" fails on non-Intel D3D11 devices.
		return ""
	default:
		return ""
	}
}

func defaultEncoderAccelerators(a AccelerationType) string {
	switch a {
	case AccelerationAny:
		return "qsv"
	case AccelerationMFX:
		return "qsv"
	default:
		return ""
	}
}

const (
	defaultDecoderDisabledCodecs = "none"
	defaultEncoderDisabledCodecs = "mjpeg_qsv"
)
