package hwaccel

import (
	"fmt"
	"strings"
)

// Device owns a backend device session and, for derived devices, the child
// session it was derived from. Close releases both exactly once, child last.
type Device struct {
	ref    DeviceRef
	child  *Device
	closed bool
}

// Type reports the device type of the owning session.
func (d *Device) Type() DeviceType { return d.ref.Type() }

// Name reports the backend device name, "" when unknown.
func (d *Device) Name() string { return d.ref.Name() }

// Ref exposes the underlying backend handle for calls into the backend.
func (d *Device) Ref() DeviceRef { return d.ref }

// Child returns the child device a derived device was built on, nil for
// directly-created devices.
func (d *Device) Child() *Device { return d.child }

// Close releases the device session and any owned child session. Calling
// Close more than once is a no-op.
func (d *Device) Close() {
	if d == nil || d.closed {
		return
	}
	d.closed = true
	d.ref.Close()
	if d.child != nil {
		d.child.Close()
	}
}

// maxDeviceIndex bounds the numeric device index; values outside
// [0, maxDeviceIndex) select the platform default device.
const maxDeviceIndex = 100000

// childDeviceTypes returns the device types to attempt, in order, when
// creating a device of type t. Composite backends list the underlying
// display backends they are derived from; everything else lists itself.
// New backends are added here rather than in CreateDevice.
func childDeviceTypes(t DeviceType) []DeviceType {
	if t == DeviceQSV {
		return qsvChildTypes
	}
	return []DeviceType{t}
}

// devicePath renders the device path for a numeric device index. VAAPI
// addresses DRI render nodes, which start at minor number 128; other
// backends take the bare index. An out-of-range index yields "" meaning the
// platform default device.
func devicePath(t DeviceType, index int) string {
	if index < 0 || index >= maxDeviceIndex {
		return ""
	}
	if t == DeviceVAAPI {
		return fmt.Sprintf("/dev/dri/renderD%d", 128+index)
	}
	return fmt.Sprintf("%d", index)
}

// checkDevice validates a freshly created session against the requested
// device type and the device-subname filter.
//
// QSV on top of a VAAPI session is rejected: without probing the VAAPI
// VideoProc entrypoint there is no way to tell whether the MFX runtime will
// actually work there.
//
// The subname filter matches as a substring of the reported device name.
// A backend that cannot report a name is accepted; the filter only rejects
// names that are known not to match.
func checkDevice(ref DeviceRef, requested DeviceType, subname string) bool {
	if ref == nil {
		return false
	}
	if ref.Type() == DeviceVAAPI && requested == DeviceQSV {
		logger.Info("skipping qsv acceleration on vaapi session: VideoProc entrypoint not verifiable")
		return false
	}
	name := ref.Name()
	if subname != "" && name != "" && !strings.Contains(name, subname) {
		logger.Info("skipping acceleration device: name does not match filter",
			"type", requested.String(), "device", name, "filter", subname)
		return false
	}
	if name != "" {
		logger.Info("using video acceleration", "type", requested.String(), "device", name)
	} else {
		logger.Info("using video acceleration", "type", requested.String())
	}
	return true
}

// createDerivedDevice wraps child in a derived session of type t. On success
// the returned Device owns the child; on failure the child is untouched and
// still owned by the caller.
func createDerivedDevice(b Backend, t DeviceType, child *Device) (*Device, error) {
	ref, err := b.CreateDerivedDevice(t, child.Ref())
	if err != nil {
		logger.Info("failed to create derived acceleration context",
			"type", t.String(), "child", child.Type().String(), "error", err)
		return nil, err
	}
	logger.Debug("created derived acceleration context",
		"type", t.String(), "child", child.Type().String())
	return &Device{ref: ref, child: child}, nil
}

// CreateDevice opens an acceleration device of the requested type, trying
// each child type in the backend's table in order. deviceIndex selects a
// specific device; pass -1 for the platform default. subname restricts
// acceptable devices by name substring. Returns ErrDeviceRejected when a
// device was created but turned down by policy, ErrBackendNotAvailable when
// no child type can be configured at all.
func CreateDevice(b Backend, t DeviceType, deviceIndex int, subname string, useOpenCL bool) (*Device, error) {
	if t == DeviceNone {
		return nil, ErrBackendNotAvailable
	}
	_ = useOpenCL // reserved: OpenCL interop binding of the created device

	rejected := false
	for _, childType := range childDeviceTypes(t) {
		path := devicePath(childType, deviceIndex)
		ref, err := b.CreateDevice(childType, path)
		if err != nil {
			logger.Info("failed to create acceleration device",
				"type", childType.String(), "path", pathOrDefault(path), "error", err)
			continue
		}
		if !checkDevice(ref, t, subname) {
			ref.Close()
			rejected = true
			continue
		}
		logger.Debug("created acceleration device",
			"type", childType.String(), "path", pathOrDefault(path))
		dev := &Device{ref: ref}
		if childType == t {
			return dev, nil
		}
		derived, err := createDerivedDevice(b, t, dev)
		if err != nil {
			dev.Close()
			return nil, err
		}
		return derived, nil
	}
	if rejected {
		return nil, ErrDeviceRejected
	}
	return nil, ErrBackendNotAvailable
}

func pathOrDefault(path string) string {
	if path == "" {
		return "'default'"
	}
	return path
}
