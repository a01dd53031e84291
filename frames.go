package hwaccel

// DefaultPoolSize is the number of frames preallocated when neither the
// codec nor the caller sizes the pool.
const DefaultPoolSize = 32

// FramePool owns a backend frame pool. A derived pool (composite-backend
// case) additionally carries a non-owning back-reference to the parameters
// of the child pool it was mapped from, for bookkeeping only.
type FramePool struct {
	ref    FramePoolRef
	source *FramePoolParams // child pool parameters; nil for direct pools
	closed bool
}

// Params returns the pool parameters.
func (p *FramePool) Params() *FramePoolParams { return p.ref.Params() }

// Ref exposes the underlying backend handle.
func (p *FramePool) Ref() FramePoolRef { return p.ref }

// Source returns the child pool parameters a derived pool was mapped from,
// nil for directly-created pools. The referenced struct is owned by the
// backend for the lifetime of the derived pool.
func (p *FramePool) Source() *FramePoolParams { return p.source }

// Close releases the pool. Calling Close more than once is a no-op.
func (p *FramePool) Close() {
	if p == nil || p.closed {
		return
	}
	p.closed = true
	p.ref.Close()
}

// allocDevice picks the device session frames are allocated on. Normally the
// device itself; for QSV the frames are first allocated on the child display
// session and then derived, except over DXVA2 which has no interop mapping.
func allocDevice(device *Device) *Device {
	if device.Type() == DeviceQSV {
		if child := device.Child(); child != nil && child.Type() != DeviceDXVA2 {
			return child
		}
	}
	return device
}

// CreateFrames provisions a hardware frame pool on device for the given
// resolution and hardware surface format. When ctx is non-nil the codec's
// recommended pool parameters are used as the starting point. Unset
// parameters are defaulted: software format to DefaultSWFormat, pool size to
// DefaultPoolSize, hardware format to hwFormat (or the allocation device's
// first valid format in the composite-backend case).
func CreateFrames(b Backend, ctx *CodecContext, device *Device, width, height int, hwFormat PixelFormat) (*FramePool, error) {
	alloc := allocDevice(device)

	var skeleton FramePoolRef
	if ctx != nil {
		ref, err := b.RecommendedFramePool(ctx, alloc.Ref(), hwFormat)
		if err != nil {
			logger.Debug("recommended frame pool parameters unavailable", "error", err)
		} else {
			skeleton = ref
		}
	}
	if skeleton == nil {
		ref, err := b.AllocFramePool(alloc.Ref())
		if err != nil {
			logger.Info("failed to allocate frame pool skeleton", "error", err)
			return nil, ErrPoolFailed
		}
		skeleton = ref
	}

	params := skeleton.Params()
	params.Width = width
	params.Height = height
	if params.Format == PixelFormatNone {
		if alloc == device {
			params.Format = hwFormat
		} else if formats := b.ValidHardwareFormats(alloc.Ref()); len(formats) > 0 {
			params.Format = formats[0]
		}
	}
	if params.SWFormat == PixelFormatNone {
		params.SWFormat = DefaultSWFormat
	}
	if params.PoolSize == 0 {
		params.PoolSize = DefaultPoolSize
	}

	if err := b.InitFramePool(skeleton); err != nil {
		logger.Info("failed to initialize frame pool",
			"width", width, "height", height, "format", params.Format.String(), "error", err)
		skeleton.Close()
		return nil, ErrPoolFailed
	}

	if alloc == device {
		return &FramePool{ref: skeleton}, nil
	}

	// Composite backend: map the initialized child pool into a pool of the
	// parent device's type. The derived pool holds its own reference to the
	// child pool, so the skeleton reference is released either way.
	derived, err := b.DeriveFramePool(device.Ref(), hwFormat, skeleton, FrameMapRead|FrameMapWrite)
	childParams := skeleton.Params()
	skeleton.Close()
	if err != nil {
		logger.Info("failed to create derived frame pool",
			"type", device.Type().String(), "child", alloc.Type().String(), "error", err)
		return nil, ErrPoolFailed
	}
	return &FramePool{ref: derived, source: childParams}, nil
}
