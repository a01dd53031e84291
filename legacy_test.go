package hwaccel

import (
	"errors"
	"testing"
)

type mockSession struct {
	id            CodecID
	width, height int
	configured    *CodecDescriptor
	configuredCtx *CodecContext
	rejectHW      bool // fail Configure when a device is attached
	grabs         int
	closes        int
	props         map[PropertyID]float64
}

func newMockSession(id CodecID, w, h int) *mockSession {
	return &mockSession{id: id, width: w, height: h, props: make(map[PropertyID]float64)}
}

func (s *mockSession) CodecID() CodecID       { return s.id }
func (s *mockSession) Dimensions() (int, int) { return s.width, s.height }
func (s *mockSession) Grab() bool             { s.grabs++; return true }
func (s *mockSession) Retrieve() (*VideoFrame, bool) {
	return &VideoFrame{Width: s.width, Height: s.height, Channels: 3}, true
}
func (s *mockSession) Property(id PropertyID) float64 { return s.props[id] }
func (s *mockSession) SetProperty(id PropertyID, v float64) bool {
	s.props[id] = v
	return true
}
func (s *mockSession) Close() error { s.closes++; return nil }

func (s *mockSession) Configure(codec *CodecDescriptor, ctx *CodecContext) error {
	if s.rejectHW && ctx.Device != nil {
		return errors.New("session cannot use accelerated codec")
	}
	s.configured = codec
	s.configuredCtx = ctx
	return nil
}

func decodeConfig() *ConfigStore {
	// Explicit backend list keeps the tests platform-independent.
	return NewConfigStore("hw_decoders_any", "vaapi")
}

func TestOpenVideoDecoderAccelerated(t *testing.T) {
	b := newMockBackend(DeviceVAAPI)
	b.registry = testRegistry()
	s := newMockSession(CodecH264, 1920, 1080)

	d, err := OpenVideoDecoder(b, s, DecoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  -1,
		Config:       decodeConfig(),
	})
	if err != nil {
		t.Fatalf("OpenVideoDecoder failed: %v", err)
	}
	defer d.Close()

	if d.Acceleration() != AccelerationVAAPI {
		t.Errorf("Acceleration = %v, want vaapi", d.Acceleration())
	}
	if s.configured == nil || s.configured.Name != "h264" {
		t.Errorf("configured codec = %+v, want h264", s.configured)
	}
	if s.configuredCtx.Device == nil {
		t.Error("no device attached to the configured context")
	}
	if got := d.Property(PropHWAcceleration); got != float64(AccelerationVAAPI) {
		t.Errorf("PropHWAcceleration = %v, want %v", got, float64(AccelerationVAAPI))
	}
}

func TestOpenVideoDecoderSoftwareFallback(t *testing.T) {
	b := newMockBackend() // no devices available
	b.registry = testRegistry()
	s := newMockSession(CodecH264, 640, 480)

	d, err := OpenVideoDecoder(b, s, DecoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  -1,
		Config:       decodeConfig(),
	})
	if err != nil {
		t.Fatalf("OpenVideoDecoder failed: %v", err)
	}
	defer d.Close()

	if d.Acceleration() != AccelerationNone {
		t.Errorf("Acceleration = %v, want none after fallback", d.Acceleration())
	}
	if b.leaked() != 0 {
		t.Errorf("%d handles leaked during failed negotiation", b.leaked())
	}
}

func TestOpenVideoDecoderSessionRejectsHardware(t *testing.T) {
	b := newMockBackend(DeviceVAAPI)
	b.registry = testRegistry()
	s := newMockSession(CodecH264, 640, 480)
	s.rejectHW = true

	d, err := OpenVideoDecoder(b, s, DecoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  -1,
		Config:       decodeConfig(),
	})
	if err != nil {
		t.Fatalf("OpenVideoDecoder failed: %v", err)
	}
	defer d.Close()

	if d.Acceleration() != AccelerationNone {
		t.Errorf("Acceleration = %v, want software after session rejection", d.Acceleration())
	}
	if b.deviceCreates != b.deviceReleases {
		t.Errorf("device leaked after rejection: %d created, %d released", b.deviceCreates, b.deviceReleases)
	}
}

func TestOpenVideoDecoderUnknownCodec(t *testing.T) {
	b := newMockBackend()
	b.registry = testRegistry()
	s := newMockSession(CodecVP9, 640, 480)

	if _, err := OpenVideoDecoder(b, s, DecoderOptions{DeviceIndex: -1}); !errors.Is(err, ErrCodecNotFound) {
		t.Errorf("got %v, want ErrCodecNotFound", err)
	}
}

func TestOpenVideoDecoderDisabledCodecFallsBack(t *testing.T) {
	b := newMockBackend(DeviceVAAPI)
	b.registry = testRegistry()
	cfg := NewConfigStore("hw_decoders_any", "vaapi", "hw_disable_decoders", "hw")
	s := newMockSession(CodecH264, 640, 480)

	d, err := OpenVideoDecoder(b, s, DecoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  -1,
		Config:       cfg,
	})
	if err != nil {
		t.Fatalf("OpenVideoDecoder failed: %v", err)
	}
	defer d.Close()

	if d.Acceleration() != AccelerationNone {
		t.Errorf("Acceleration = %v, want none: all hw codecs disabled", d.Acceleration())
	}
	if b.deviceCreates != b.deviceReleases {
		t.Errorf("device leaked: %d created, %d released", b.deviceCreates, b.deviceReleases)
	}
}

func TestVideoDecoderPropertiesAndClose(t *testing.T) {
	b := newMockBackend(DeviceVAAPI)
	b.registry = testRegistry()
	s := newMockSession(CodecH264, 640, 480)

	d, err := OpenVideoDecoder(b, s, DecoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  2,
		UseOpenCL:    true,
		Config:       decodeConfig(),
	})
	if err != nil {
		t.Fatalf("OpenVideoDecoder failed: %v", err)
	}

	if got := d.Property(PropHWDevice); got != 2 {
		t.Errorf("PropHWDevice = %v, want 2", got)
	}
	if got := d.Property(PropHWAccelerationUseOpenCL); got != 1 {
		t.Errorf("PropHWAccelerationUseOpenCL = %v, want 1", got)
	}
	if d.SetProperty(PropHWAcceleration, 0) {
		t.Error("acceleration properties must be immutable after construction")
	}
	if !d.SetProperty(PropPosFrames, 100) {
		t.Error("session property update refused")
	}

	if !d.GrabFrame() {
		t.Error("GrabFrame failed")
	}
	if f, ok := d.RetrieveFrame(); !ok || f.Width != 640 {
		t.Errorf("RetrieveFrame = (%+v, %v)", f, ok)
	}

	d.Close()
	d.Close()
	if s.closes != 1 {
		t.Errorf("session closed %d times, want 1", s.closes)
	}
	if b.leaked() != 0 {
		t.Errorf("%d handles leaked after Close", b.leaked())
	}
	if d.GrabFrame() {
		t.Error("GrabFrame succeeded on a closed decoder")
	}
}

type mockSink struct {
	id            CodecID
	configured    *CodecDescriptor
	configuredCtx *CodecContext
	frames        int
	closes        int
}

func (s *mockSink) CodecID() CodecID { return s.id }
func (s *mockSink) Configure(codec *CodecDescriptor, ctx *CodecContext) error {
	s.configured = codec
	s.configuredCtx = ctx
	return nil
}
func (s *mockSink) WriteFrame(f *VideoFrame) error { s.frames++; return nil }
func (s *mockSink) Close() error                   { s.closes++; return nil }

func TestOpenVideoEncoderAccelerated(t *testing.T) {
	b := newMockBackend(DeviceVAAPI)
	b.registry = testRegistry()
	sink := &mockSink{id: CodecH264}

	e, err := OpenVideoEncoder(b, sink, EncoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  -1,
		Config:       NewConfigStore("hw_encoders_any", "vaapi"),
		Width:        1280,
		Height:       720,
		FPS:          30,
	})
	if err != nil {
		t.Fatalf("OpenVideoEncoder failed: %v", err)
	}
	defer e.Close()

	if e.Acceleration() != AccelerationVAAPI {
		t.Errorf("Acceleration = %v, want vaapi", e.Acceleration())
	}
	if sink.configured.Name != "h264_vaapi" {
		t.Errorf("configured codec = %q, want h264_vaapi", sink.configured.Name)
	}
	if sink.configuredCtx.Frames == nil {
		t.Error("encoder frame pool not provisioned")
	}
	if err := e.WriteFrame(&VideoFrame{Width: 1280, Height: 720}); err != nil {
		t.Errorf("WriteFrame failed: %v", err)
	}
}

func TestOpenVideoEncoderPoolFailureFallsBack(t *testing.T) {
	b := newMockBackend(DeviceVAAPI)
	b.registry = testRegistry()
	b.initFail = true
	sink := &mockSink{id: CodecH264}

	e, err := OpenVideoEncoder(b, sink, EncoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  -1,
		Config:       NewConfigStore("hw_encoders_any", "vaapi"),
		Width:        1280,
		Height:       720,
	})
	if err != nil {
		t.Fatalf("OpenVideoEncoder failed: %v", err)
	}
	defer e.Close()

	if e.Acceleration() != AccelerationNone {
		t.Errorf("Acceleration = %v, want software after pool failure", e.Acceleration())
	}
	if sink.configured.Encoder != true {
		t.Error("fallback codec is not an encoder")
	}
	if b.deviceCreates != b.deviceReleases {
		t.Errorf("device leaked: %d created, %d released", b.deviceCreates, b.deviceReleases)
	}
}

func TestVideoEncoderCloseReleasesAll(t *testing.T) {
	b := newMockBackend(DeviceVAAPI)
	b.registry = testRegistry()
	sink := &mockSink{id: CodecH264}

	e, err := OpenVideoEncoder(b, sink, EncoderOptions{
		Acceleration: AccelerationAny,
		DeviceIndex:  -1,
		Config:       NewConfigStore("hw_encoders_any", "vaapi"),
		Width:        640,
		Height:       480,
	})
	if err != nil {
		t.Fatalf("OpenVideoEncoder failed: %v", err)
	}
	e.Close()
	e.Close()
	if sink.closes != 1 {
		t.Errorf("sink closed %d times, want 1", sink.closes)
	}
	if b.leaked() != 0 {
		t.Errorf("%d handles leaked after Close", b.leaked())
	}
	if err := e.WriteFrame(&VideoFrame{}); err == nil {
		t.Error("WriteFrame succeeded on a closed encoder")
	}
}
