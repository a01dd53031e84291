//go:build windows

package hwaccel

// QSV sessions are derived from a display backend; D3D11 is preferred,
// DXVA2 kept as the legacy fallback.
var qsvChildTypes = []DeviceType{DeviceD3D11VA, DeviceDXVA2}
