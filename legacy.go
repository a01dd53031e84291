package hwaccel

import "fmt"

// Legacy-style decoder/encoder entry points. These mirror the historical
// C API surface (create, set/get property, grab, retrieve, release): thin
// parameter marshalling over an external decode session or encode sink,
// plus the acceleration negotiation performed at construction time.

// PropertyID selects a decoder/encoder property for Property/SetProperty.
type PropertyID int

const (
	PropPosFrames   PropertyID = 1
	PropFrameWidth  PropertyID = 3
	PropFrameHeight PropertyID = 4
	PropFPS         PropertyID = 5

	// Acceleration properties, fixed after construction.
	PropHWAcceleration          PropertyID = 50
	PropHWDevice                PropertyID = 51
	PropHWAccelerationUseOpenCL PropertyID = 52
)

// DecodeSession is the external decode pipeline (container demuxing and
// pixel decoding) the legacy decoder marshals over. Sessions performing
// hardware decode are expected to call SelectFormat from their pixel format
// negotiation hook with the CodecContext received in Configure.
type DecodeSession interface {
	// CodecID reports the compressed format of the opened stream.
	CodecID() CodecID
	// Dimensions reports the coded width and height of the stream.
	Dimensions() (width, height int)
	// Configure binds the negotiated codec and context. ctx.Device is nil
	// for software decode.
	Configure(codec *CodecDescriptor, ctx *CodecContext) error
	// Grab advances to the next frame.
	Grab() bool
	// Retrieve exposes the most recently grabbed frame. The returned frame
	// aliases session-owned memory valid until the next Grab.
	Retrieve() (*VideoFrame, bool)
	// Property and SetProperty cover session-level properties the
	// acceleration layer does not own.
	Property(id PropertyID) float64
	SetProperty(id PropertyID, value float64) bool
	Close() error
}

// EncodeSink is the external encode pipeline the legacy encoder marshals
// over.
type EncodeSink interface {
	CodecID() CodecID
	Configure(codec *CodecDescriptor, ctx *CodecContext) error
	WriteFrame(f *VideoFrame) error
	Close() error
}

// DecoderOptions configure decoder construction.
type DecoderOptions struct {
	Acceleration AccelerationType
	DeviceIndex  int  // numeric device index, -1 for the platform default
	UseOpenCL    bool // request OpenCL interop binding of the device
	Config       *ConfigStore
}

// VideoDecoder is the legacy decoder handle.
type VideoDecoder struct {
	session DecodeSession
	ctx     *CodecContext
	opts    DecoderOptions
	closed  bool
}

// negotiate runs the acceleration negotiation loop: one CreateDevice/
// FindCodec attempt per candidate, software selection when the candidate
// list produces nothing. It never fails for acceleration reasons; the error
// return covers only the absence of any usable codec.
func negotiate(b Backend, id CodecID, isEncoder bool, opts DecoderOptions) (*CodecDescriptor, *Device, PixelFormat, error) {
	category := IsDecoder
	if isEncoder {
		category = IsEncoder
	}

	it := NewAccelIterator(b, opts.Acceleration, isEncoder, opts.Config)
	for it.Good() {
		it.ParseNext()
		c := it.Candidate()
		if c.Type == DeviceNone {
			// Empty or unrecognized candidate: software processing.
			break
		}
		dev, err := CreateDevice(b, c.Type, opts.DeviceIndex, c.Subname, opts.UseOpenCL)
		if err != nil {
			continue
		}
		codec, format, err := FindCodec(b, id, c.Type, category, it.DisabledCodecs())
		if err != nil {
			logger.Debug("no codec for candidate", "candidate", c.Raw, "codec_id", id.String())
			dev.Close()
			continue
		}
		return codec, dev, format, nil
	}

	codec, _, err := FindCodec(b, id, DeviceNone, category, "")
	if err != nil {
		return nil, nil, PixelFormatNone, err
	}
	return codec, nil, PixelFormatNone, nil
}

// OpenVideoDecoder constructs a decoder over the given session, negotiating
// hardware acceleration per opts. Acceleration failures fall back to
// software decode; the only fatal condition is a stream whose codec is not
// present in the registry at all.
func OpenVideoDecoder(b Backend, session DecodeSession, opts DecoderOptions) (*VideoDecoder, error) {
	codec, dev, _, err := negotiate(b, session.CodecID(), false, opts)
	if err != nil {
		return nil, fmt.Errorf("open decoder: %w", err)
	}

	width, height := session.Dimensions()
	ctx := &CodecContext{
		Codec:    codec,
		Width:    width,
		Height:   height,
		SWFormat: PixelFormatNone,
		Device:   dev,
	}
	if err := session.Configure(codec, ctx); err != nil {
		// The session could not use the negotiated codec; retry in
		// software before giving up.
		if dev != nil {
			logger.Info("session rejected accelerated codec, falling back to software",
				"codec", codec.Name, "error", err)
			dev.Close()
			ctx.Device = nil
			ctx.Frames = nil
			swCodec, _, ferr := FindCodec(b, session.CodecID(), DeviceNone, IsDecoder, "")
			if ferr != nil {
				return nil, fmt.Errorf("open decoder: %w", ferr)
			}
			ctx.Codec = swCodec
			if err := session.Configure(swCodec, ctx); err != nil {
				return nil, fmt.Errorf("open decoder: %w", err)
			}
		} else {
			return nil, fmt.Errorf("open decoder: %w", err)
		}
	}
	return &VideoDecoder{session: session, ctx: ctx, opts: opts}, nil
}

// Acceleration reports the acceleration type actually in use, which is
// AccelerationNone when negotiation fell back to software.
func (d *VideoDecoder) Acceleration() AccelerationType {
	if d.ctx.Device == nil {
		return AccelerationNone
	}
	return AccelerationTypeForDevice(d.ctx.Device.Type())
}

// GrabFrame advances to the next frame.
func (d *VideoDecoder) GrabFrame() bool {
	if d.closed {
		return false
	}
	return d.session.Grab()
}

// RetrieveFrame exposes the last grabbed frame.
func (d *VideoDecoder) RetrieveFrame() (*VideoFrame, bool) {
	if d.closed {
		return nil, false
	}
	return d.session.Retrieve()
}

// Property returns the requested property value. Acceleration properties
// reflect the negotiation outcome; everything else is delegated.
func (d *VideoDecoder) Property(id PropertyID) float64 {
	switch id {
	case PropHWAcceleration:
		return float64(d.Acceleration())
	case PropHWDevice:
		return float64(d.opts.DeviceIndex)
	case PropHWAccelerationUseOpenCL:
		if d.opts.UseOpenCL {
			return 1
		}
		return 0
	default:
		return d.session.Property(id)
	}
}

// SetProperty updates a session property. Acceleration properties are fixed
// at construction and report failure.
func (d *VideoDecoder) SetProperty(id PropertyID, value float64) bool {
	switch id {
	case PropHWAcceleration, PropHWDevice, PropHWAccelerationUseOpenCL:
		return false
	default:
		return d.session.SetProperty(id, value)
	}
}

// Close releases the session, the frame pool and the device, in that order.
// Calling Close more than once is a no-op.
func (d *VideoDecoder) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if err := d.session.Close(); err != nil {
		logger.Warn("decode session close failed", "error", err)
	}
	d.ctx.Frames.Close()
	d.ctx.Device.Close()
}

// EncoderOptions configure encoder construction.
type EncoderOptions struct {
	Acceleration AccelerationType
	DeviceIndex  int
	UseOpenCL    bool
	Config       *ConfigStore

	Width  int
	Height int
	FPS    float64
}

// VideoEncoder is the legacy encoder handle.
type VideoEncoder struct {
	sink   EncodeSink
	ctx    *CodecContext
	opts   EncoderOptions
	closed bool
}

// OpenVideoEncoder constructs an encoder over the given sink, negotiating
// hardware acceleration per opts. An accelerated candidate additionally
// needs its frame pool provisioned up front; a pool failure abandons that
// candidate's hardware path.
func OpenVideoEncoder(b Backend, sink EncodeSink, opts EncoderOptions) (*VideoEncoder, error) {
	decOpts := DecoderOptions{
		Acceleration: opts.Acceleration,
		DeviceIndex:  opts.DeviceIndex,
		UseOpenCL:    opts.UseOpenCL,
		Config:       opts.Config,
	}
	codec, dev, format, err := negotiate(b, sink.CodecID(), true, decOpts)
	if err != nil {
		return nil, fmt.Errorf("open encoder: %w", err)
	}

	ctx := &CodecContext{
		Codec:    codec,
		Width:    opts.Width,
		Height:   opts.Height,
		SWFormat: DefaultSWFormat,
		Device:   dev,
	}
	if dev != nil {
		pool, perr := CreateFrames(b, ctx, dev, opts.Width, opts.Height, format)
		if perr != nil {
			logger.Info("falling back to software encode: frame pool unavailable",
				"codec", codec.Name, "error", perr)
			dev.Close()
			ctx.Device = nil
			swCodec, _, ferr := FindCodec(b, sink.CodecID(), DeviceNone, IsEncoder, "")
			if ferr != nil {
				return nil, fmt.Errorf("open encoder: %w", ferr)
			}
			ctx.Codec = swCodec
			codec = swCodec
		} else {
			ctx.Frames = pool
		}
	}
	if err := sink.Configure(codec, ctx); err != nil {
		ctx.Frames.Close()
		ctx.Device.Close()
		return nil, fmt.Errorf("open encoder: %w", err)
	}
	return &VideoEncoder{sink: sink, ctx: ctx, opts: opts}, nil
}

// Acceleration reports the acceleration type actually in use.
func (e *VideoEncoder) Acceleration() AccelerationType {
	if e.ctx.Device == nil {
		return AccelerationNone
	}
	return AccelerationTypeForDevice(e.ctx.Device.Type())
}

// WriteFrame submits one frame to the encode pipeline.
func (e *VideoEncoder) WriteFrame(f *VideoFrame) error {
	if e.closed {
		return fmt.Errorf("write frame: encoder closed")
	}
	return e.sink.WriteFrame(f)
}

// Close releases the sink, the frame pool and the device, in that order.
func (e *VideoEncoder) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if err := e.sink.Close(); err != nil {
		logger.Warn("encode sink close failed", "error", err)
	}
	e.ctx.Frames.Close()
	e.ctx.Device.Close()
}
