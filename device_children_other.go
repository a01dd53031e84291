//go:build !windows

package hwaccel

// QSV sessions are derived from a VAAPI display backend on POSIX platforms.
var qsvChildTypes = []DeviceType{DeviceVAAPI}
