package hwaccel

// Counting mock Backend. Every create/release is tallied so ownership
// properties (exactly-once release, no leaks on failure paths) are
// verifiable; failure injection is per call site.

type mockDevice struct {
	b      *mockBackend
	typ    DeviceType
	name   string
	path   string
	closes int
}

func (d *mockDevice) Type() DeviceType { return d.typ }
func (d *mockDevice) Name() string     { return d.name }
func (d *mockDevice) Close() {
	d.closes++
	d.b.deviceReleases++
}

type mockPool struct {
	b           *mockBackend
	dev         DeviceRef
	params      FramePoolParams
	initialized bool
	derived     bool
	closes      int
}

func (p *mockPool) Params() *FramePoolParams { return &p.params }
func (p *mockPool) Close() {
	p.closes++
	p.b.poolReleases++
}

type mockBackend struct {
	// configuration
	available    map[DeviceType]bool        // creatable device types
	names        map[DeviceType]string      // reported device names
	deriveFail   bool                       // CreateDerivedDevice fails
	recommend    *FramePoolParams           // RecommendedFramePool result, nil = unavailable
	allocFail    bool                       // AllocFramePool fails
	initFail     bool                       // InitFramePool fails
	deriveFrFail bool                       // DeriveFramePool fails
	validFormats map[DeviceType][]PixelFormat
	native       map[DeviceType]PixelFormat // NativeFormat table
	registry     []*CodecDescriptor

	// counters
	deviceCreates  int
	deviceReleases int
	poolCreates    int
	poolReleases   int
	createdPaths   []string
}

func newMockBackend(available ...DeviceType) *mockBackend {
	b := &mockBackend{
		available:    make(map[DeviceType]bool),
		names:        make(map[DeviceType]string),
		validFormats: make(map[DeviceType][]PixelFormat),
		native:       make(map[DeviceType]PixelFormat),
	}
	for _, t := range available {
		b.available[t] = true
	}
	return b
}

func (b *mockBackend) DeviceTypeByName(name string) DeviceType {
	for _, t := range []DeviceType{DeviceVAAPI, DeviceD3D11VA, DeviceDXVA2, DeviceQSV, DeviceCUDA, DeviceVideoToolbox} {
		if t.String() == name {
			return t
		}
	}
	return DeviceNone
}

func (b *mockBackend) CreateDevice(t DeviceType, path string) (DeviceRef, error) {
	if !b.available[t] {
		return nil, ErrBackendNotAvailable
	}
	b.deviceCreates++
	b.createdPaths = append(b.createdPaths, path)
	return &mockDevice{b: b, typ: t, name: b.names[t], path: path}, nil
}

func (b *mockBackend) CreateDerivedDevice(t DeviceType, child DeviceRef) (DeviceRef, error) {
	if b.deriveFail {
		return nil, ErrBackendNotAvailable
	}
	b.deviceCreates++
	return &mockDevice{b: b, typ: t, name: b.names[t]}, nil
}

func (b *mockBackend) NativeFormat(t DeviceType) (PixelFormat, bool) {
	f, ok := b.native[t]
	return f, ok
}

func (b *mockBackend) RecommendedFramePool(ctx *CodecContext, dev DeviceRef, format PixelFormat) (FramePoolRef, error) {
	if b.recommend == nil {
		return nil, ErrPoolFailed
	}
	b.poolCreates++
	return &mockPool{b: b, dev: dev, params: *b.recommend}, nil
}

func (b *mockBackend) AllocFramePool(dev DeviceRef) (FramePoolRef, error) {
	if b.allocFail {
		return nil, ErrPoolFailed
	}
	b.poolCreates++
	return &mockPool{b: b, dev: dev}, nil
}

func (b *mockBackend) InitFramePool(pool FramePoolRef) error {
	if b.initFail {
		return ErrPoolFailed
	}
	pool.(*mockPool).initialized = true
	return nil
}

func (b *mockBackend) DeriveFramePool(dev DeviceRef, format PixelFormat, src FramePoolRef, flags FrameMapFlag) (FramePoolRef, error) {
	if b.deriveFrFail {
		return nil, ErrPoolFailed
	}
	if !src.(*mockPool).initialized {
		return nil, ErrPoolFailed
	}
	b.poolCreates++
	return &mockPool{b: b, dev: dev, params: *src.Params(), derived: true}, nil
}

func (b *mockBackend) ValidHardwareFormats(dev DeviceRef) []PixelFormat {
	return b.validFormats[dev.Type()]
}

func (b *mockBackend) Codecs() []*CodecDescriptor {
	return b.registry
}

// leaked reports the number of created handles that were never released.
func (b *mockBackend) leaked() int {
	return (b.deviceCreates - b.deviceReleases) + (b.poolCreates - b.poolReleases)
}
