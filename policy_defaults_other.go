//go:build !windows

package hwaccel

// Built-in POSIX policy defaults. The iHD filter restricts VAAPI/QSV to the
// Intel media driver, where these paths are known to work.

func defaultDecoderAccelerators(a AccelerationType) string {
	switch a {
	case AccelerationAny:
		return "vaapi.iHD"
	case AccelerationVAAPI:
		return "vaapi.iHD"
	case AccelerationMFX:
		return "qsv.iHD"
	default:
		return ""
	}
}

func defaultEncoderAccelerators(a AccelerationType) string {
	switch a {
	case AccelerationAny:
		return "qsv.iHD,vaapi.iHD"
	case AccelerationVAAPI:
		return "vaapi.iHD"
	case AccelerationMFX:
		return "qsv.iHD"
	default:
		return ""
	}
}

const (
	defaultDecoderDisabledCodecs = "av1.vaapi,av1_qsv,vp8.vaapi,vp8_qsv"
	defaultEncoderDisabledCodecs = "mjpeg_vaapi,mjpeg_qsv,vp8_vaapi"
)
