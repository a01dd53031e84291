//go:build (darwin || linux) && !noffmpeg

// FFmpeg-backed Backend implementation.
//
// This binds libavutil/libavcodec dynamically at runtime via purego, so the
// package builds and tests with CGO_ENABLED=0 and without FFmpeg installed.
// Numeric pixel format and device type values are resolved through
// av_get_pix_fmt / av_hwdevice_find_type_by_name at load time rather than
// baked in, since they differ across FFmpeg releases.
//
// Requires libavutil >= 59 / libavcodec >= 61 (FFmpeg 7.0): older majors
// keep an internal pointer inside AVHWFramesContext that shifts every public
// field, so they are rejected at load time rather than silently corrupted.
//
// Library locations checked (in order):
//   - HWACCEL_AVUTIL_PATH / HWACCEL_AVCODEC_PATH environment variables
//   - versioned sonames (libavutil.so.59, libavcodec.so.61)
//   - unversioned system libraries

package hwaccel

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	ffmpegOnce    sync.Once
	ffmpegBackend *FFmpegBackend
	ffmpegInitErr error
)

// libavutil/libavcodec function pointers
var (
	avutilVersion            func() uint32
	avGetPixFmt              func(name string) int32
	avBufferUnrefFn          func(ref *uintptr)
	avHWDeviceFindTypeByName func(name string) int32
	avHWDeviceCtxCreate      func(out *uintptr, t int32, device uintptr, opts uintptr, flags int32) int32
	avHWDeviceCtxDerive      func(out *uintptr, t int32, src uintptr, flags int32) int32
	avHWFrameCtxAlloc        func(deviceRef uintptr) uintptr
	avHWFrameCtxInit         func(ref uintptr) int32
	avHWFrameCtxDerive       func(out *uintptr, format int32, deviceRef uintptr, src uintptr, flags int32) int32
	avHWFrameConstraints     func(deviceRef uintptr, hwconfig uintptr) uintptr
	avHWFrameConstraintsFree func(constraints *uintptr)

	avCodecIterate           func(opaque *uintptr) uintptr
	avCodecIsEncoder         func(codec uintptr) int32
	avCodecGetHWConfig       func(codec uintptr, index int32) uintptr
	avCodecGetHWFramesParams func(avctx uintptr, deviceRef uintptr, format int32, out *uintptr) int32
)

// Mirror structs for the handful of public FFmpeg types the backend pokes
// directly. Layouts match libavutil >= 59 / libavcodec >= 61 (FFmpeg 7.0+,
// after AVHWDeviceInternal/AVHWFramesInternal were removed).

type avBufferRef struct {
	buffer uintptr
	data   uintptr
	size   uintptr
}

type avHWFramesContext struct {
	class           uintptr // const AVClass*
	deviceRef       uintptr // AVBufferRef*
	deviceCtx       uintptr // AVHWDeviceContext*
	hwctx           uintptr
	free            uintptr
	userOpaque      uintptr
	pool            uintptr // AVBufferPool*
	initialPoolSize int32
	format          int32
	swFormat        int32
	width           int32
	height          int32
	_               int32
}

type avCodecMirror struct {
	name                 uintptr // const char*
	longName             uintptr // const char*
	mediaType            int32   // enum AVMediaType
	id                   int32   // enum AVCodecID
	capabilities         int32
	maxLowres            uint8
	_                    [3]byte
	supportedFramerates  uintptr
	pixFmts              uintptr // const enum AVPixelFormat*, -1 terminated
	supportedSamplerates uintptr
	sampleFmts           uintptr
}

type avCodecHWConfig struct {
	pixFmt     int32
	methods    int32
	deviceType int32
}

type avHWFramesConstraints struct {
	validHWFormats uintptr // enum AVPixelFormat*, -1 terminated
	validSWFormats uintptr
	minWidth       int32
	minHeight      int32
	maxWidth       int32
	maxHeight      int32
}

const (
	avMediaTypeVideo       = 0
	avPixFmtNone           = -1
	avCodecCapExperimental = 1 << 9

	avCodecHWConfigMethodHWDeviceCtx = 1 << 0
	avCodecHWConfigMethodHWFramesCtx = 1 << 1

	// Oldest libavutil major whose AVHWFramesContext layout the mirror
	// structs match.
	minAVUtilMajor = 59
)

// FFmpegBackend implements Backend over libavutil/libavcodec.
type FFmpegBackend struct {
	// resolved numeric values, keyed by package enums
	devToAV map[DeviceType]int32
	avToDev map[int32]DeviceType
	pixToAV map[PixelFormat]int32
	avToPix map[int32]PixelFormat

	codecsOnce sync.Once
	codecs     []*CodecDescriptor
}

// NewFFmpegBackend loads the FFmpeg libraries on first use and returns the
// shared backend instance.
func NewFFmpegBackend() (*FFmpegBackend, error) {
	ffmpegOnce.Do(func() {
		ffmpegInitErr = loadFFmpegLibs()
		if ffmpegInitErr != nil {
			return
		}
		if ffmpegInitErr = checkAVUtilVersion(avutilVersion()); ffmpegInitErr != nil {
			return
		}
		b := &FFmpegBackend{
			devToAV: make(map[DeviceType]int32),
			avToDev: make(map[int32]DeviceType),
			pixToAV: make(map[PixelFormat]int32),
			avToPix: make(map[int32]PixelFormat),
		}
		b.resolveEnums()
		ffmpegBackend = b
	})
	if ffmpegInitErr != nil {
		return nil, ffmpegInitErr
	}
	return ffmpegBackend, nil
}

func loadFFmpegLibs() error {
	avutil, err := dlopenFirst(avutilCandidates())
	if err != nil {
		return fmt.Errorf("failed to load libavutil: %w", err)
	}
	avcodec, err := dlopenFirst(avcodecCandidates())
	if err != nil {
		return fmt.Errorf("failed to load libavcodec: %w", err)
	}

	purego.RegisterLibFunc(&avutilVersion, avutil, "avutil_version")
	purego.RegisterLibFunc(&avGetPixFmt, avutil, "av_get_pix_fmt")
	purego.RegisterLibFunc(&avBufferUnrefFn, avutil, "av_buffer_unref")
	purego.RegisterLibFunc(&avHWDeviceFindTypeByName, avutil, "av_hwdevice_find_type_by_name")
	purego.RegisterLibFunc(&avHWDeviceCtxCreate, avutil, "av_hwdevice_ctx_create")
	purego.RegisterLibFunc(&avHWDeviceCtxDerive, avutil, "av_hwdevice_ctx_create_derived")
	purego.RegisterLibFunc(&avHWFrameCtxAlloc, avutil, "av_hwframe_ctx_alloc")
	purego.RegisterLibFunc(&avHWFrameCtxInit, avutil, "av_hwframe_ctx_init")
	purego.RegisterLibFunc(&avHWFrameCtxDerive, avutil, "av_hwframe_ctx_create_derived")
	purego.RegisterLibFunc(&avHWFrameConstraints, avutil, "av_hwdevice_get_hwframe_constraints")
	purego.RegisterLibFunc(&avHWFrameConstraintsFree, avutil, "av_hwframe_constraints_free")

	purego.RegisterLibFunc(&avCodecIterate, avcodec, "av_codec_iterate")
	purego.RegisterLibFunc(&avCodecIsEncoder, avcodec, "av_codec_is_encoder")
	purego.RegisterLibFunc(&avCodecGetHWConfig, avcodec, "avcodec_get_hw_config")
	purego.RegisterLibFunc(&avCodecGetHWFramesParams, avcodec, "avcodec_get_hw_frames_parameters")
	return nil
}

func avutilCandidates() []string {
	var paths []string
	if p := os.Getenv("HWACCEL_AVUTIL_PATH"); p != "" {
		paths = append(paths, p)
	}
	if runtime.GOOS == "darwin" {
		return append(paths, "libavutil.59.dylib", "libavutil.dylib")
	}
	return append(paths, "libavutil.so.59", "libavutil.so")
}

func avcodecCandidates() []string {
	var paths []string
	if p := os.Getenv("HWACCEL_AVCODEC_PATH"); p != "" {
		paths = append(paths, p)
	}
	if runtime.GOOS == "darwin" {
		return append(paths, "libavcodec.61.dylib", "libavcodec.dylib")
	}
	return append(paths, "libavcodec.so.61", "libavcodec.so")
}

// checkAVUtilVersion rejects loaded libraries whose AVHWFramesContext layout
// predates the mirror structs (the internal pointer was only dropped at the
// libavutil 59 major bump).
func checkAVUtilVersion(v uint32) error {
	if v>>16 < minAVUtilMajor {
		return fmt.Errorf("libavutil %d.%d.%d is too old: need %d.0.0 (FFmpeg 7.0) or newer",
			v>>16, (v>>8)&0xff, v&0xff, minAVUtilMajor)
	}
	return nil
}

func dlopenFirst(paths []string) (uintptr, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return 0, lastErr
	}
	return 0, errors.New("no candidate paths")
}

// resolveEnums queries the numeric values of the device types and pixel
// formats this package names.
func (b *FFmpegBackend) resolveEnums() {
	devices := map[DeviceType]string{
		DeviceVAAPI:        "vaapi",
		DeviceD3D11VA:      "d3d11va",
		DeviceDXVA2:        "dxva2",
		DeviceQSV:          "qsv",
		DeviceCUDA:         "cuda",
		DeviceVideoToolbox: "videotoolbox",
	}
	for dev, name := range devices {
		if v := avHWDeviceFindTypeByName(name); v != 0 {
			b.devToAV[dev] = v
			b.avToDev[v] = dev
		}
	}
	formats := map[PixelFormat]string{
		PixelFormatI420:   "yuv420p",
		PixelFormatNV12:   "nv12",
		PixelFormatP010:   "p010le",
		PixelFormatRGB24:  "rgb24",
		PixelFormatBGRA32: "bgra",
		PixelFormatVAAPI:  "vaapi",
		PixelFormatD3D11:  "d3d11",
		PixelFormatDXVA2:  "dxva2_vld",
		PixelFormatQSV:    "qsv",
		PixelFormatCUDA:   "cuda",

		PixelFormatVideoToolbox: "videotoolbox",
	}
	for pix, name := range formats {
		if v := avGetPixFmt(name); v != avPixFmtNone {
			b.pixToAV[pix] = v
			b.avToPix[v] = pix
		}
	}
}

func (b *FFmpegBackend) avDevice(t DeviceType) (int32, bool) {
	v, ok := b.devToAV[t]
	return v, ok
}

func (b *FFmpegBackend) avFormat(f PixelFormat) int32 {
	if v, ok := b.pixToAV[f]; ok {
		return v
	}
	return avPixFmtNone
}

func (b *FFmpegBackend) goFormat(v int32) PixelFormat {
	if f, ok := b.avToPix[v]; ok {
		return f
	}
	return PixelFormatNone
}

// ffDevice is a DeviceRef over an AVBufferRef of an AVHWDeviceContext.
type ffDevice struct {
	ref uintptr // AVBufferRef*
	typ DeviceType
}

func (d *ffDevice) Type() DeviceType { return d.typ }

// Name returns "": the hwdevice API does not expose a portable device name.
// The subname policy filter therefore never rejects devices on this backend.
func (d *ffDevice) Name() string { return "" }

func (d *ffDevice) Close() {
	if d.ref != 0 {
		avBufferUnrefFn(&d.ref)
	}
}

// ffFramePool is a FramePoolRef over an AVBufferRef of an AVHWFramesContext.
type ffFramePool struct {
	b      *FFmpegBackend
	ref    uintptr // AVBufferRef*
	params FramePoolParams
}

func (p *ffFramePool) Params() *FramePoolParams { return &p.params }

func (p *ffFramePool) Close() {
	if p.ref != 0 {
		avBufferUnrefFn(&p.ref)
	}
}

// framesCtx returns the AVHWFramesContext behind the pool's buffer ref.
func (p *ffFramePool) framesCtx() *avHWFramesContext {
	buf := (*avBufferRef)(unsafe.Pointer(p.ref))
	return (*avHWFramesContext)(unsafe.Pointer(buf.data))
}

// loadParams copies the C frame context fields into the Go-side params.
func (p *ffFramePool) loadParams() {
	ctx := p.framesCtx()
	p.params = FramePoolParams{
		Width:    int(ctx.width),
		Height:   int(ctx.height),
		Format:   p.b.goFormat(ctx.format),
		SWFormat: p.b.goFormat(ctx.swFormat),
		PoolSize: int(ctx.initialPoolSize),
	}
}

// storeParams copies the Go-side params into the C frame context.
func (p *ffFramePool) storeParams() {
	ctx := p.framesCtx()
	ctx.width = int32(p.params.Width)
	ctx.height = int32(p.params.Height)
	ctx.format = p.b.avFormat(p.params.Format)
	ctx.swFormat = p.b.avFormat(p.params.SWFormat)
	ctx.initialPoolSize = int32(p.params.PoolSize)
}

func (b *FFmpegBackend) DeviceTypeByName(name string) DeviceType {
	v := avHWDeviceFindTypeByName(name)
	if dev, ok := b.avToDev[v]; ok {
		return dev
	}
	return DeviceNone
}

func (b *FFmpegBackend) CreateDevice(t DeviceType, path string) (DeviceRef, error) {
	avType, ok := b.avDevice(t)
	if !ok {
		return nil, ErrBackendNotAvailable
	}
	var cpath []byte
	var pathPtr uintptr
	if path != "" {
		cpath = append([]byte(path), 0)
		pathPtr = uintptr(unsafe.Pointer(&cpath[0]))
	}
	var ref uintptr
	res := avHWDeviceCtxCreate(&ref, avType, pathPtr, 0, 0)
	runtime.KeepAlive(cpath)
	if res < 0 || ref == 0 {
		if ref != 0 {
			avBufferUnrefFn(&ref)
		}
		return nil, fmt.Errorf("av_hwdevice_ctx_create: %d", res)
	}
	return &ffDevice{ref: ref, typ: t}, nil
}

func (b *FFmpegBackend) CreateDerivedDevice(t DeviceType, child DeviceRef) (DeviceRef, error) {
	avType, ok := b.avDevice(t)
	if !ok {
		return nil, ErrBackendNotAvailable
	}
	src := child.(*ffDevice)
	var ref uintptr
	res := avHWDeviceCtxDerive(&ref, avType, src.ref, 0)
	if res < 0 || ref == 0 {
		if ref != 0 {
			avBufferUnrefFn(&ref)
		}
		return nil, fmt.Errorf("av_hwdevice_ctx_create_derived: %d", res)
	}
	return &ffDevice{ref: ref, typ: t}, nil
}

func (b *FFmpegBackend) NativeFormat(t DeviceType) (PixelFormat, bool) {
	if t == DeviceCUDA {
		// CUDA encoders do not support avcodec_get_hw_config.
		return PixelFormatCUDA, true
	}
	return PixelFormatNone, false
}

func (b *FFmpegBackend) RecommendedFramePool(ctx *CodecContext, dev DeviceRef, format PixelFormat) (FramePoolRef, error) {
	if ctx.Native == 0 {
		return nil, errors.New("no native codec context")
	}
	src := dev.(*ffDevice)
	var ref uintptr
	res := avCodecGetHWFramesParams(ctx.Native, src.ref, b.avFormat(format), &ref)
	if res < 0 || ref == 0 {
		if ref != 0 {
			avBufferUnrefFn(&ref)
		}
		return nil, fmt.Errorf("avcodec_get_hw_frames_parameters: %d", res)
	}
	pool := &ffFramePool{b: b, ref: ref}
	pool.loadParams()
	return pool, nil
}

func (b *FFmpegBackend) AllocFramePool(dev DeviceRef) (FramePoolRef, error) {
	src := dev.(*ffDevice)
	ref := avHWFrameCtxAlloc(src.ref)
	if ref == 0 {
		return nil, errors.New("av_hwframe_ctx_alloc failed")
	}
	pool := &ffFramePool{b: b, ref: ref}
	pool.loadParams()
	return pool, nil
}

func (b *FFmpegBackend) InitFramePool(pool FramePoolRef) error {
	p := pool.(*ffFramePool)
	p.storeParams()
	if res := avHWFrameCtxInit(p.ref); res < 0 {
		return fmt.Errorf("av_hwframe_ctx_init: %d", res)
	}
	p.loadParams()
	return nil
}

func (b *FFmpegBackend) DeriveFramePool(dev DeviceRef, format PixelFormat, src FramePoolRef, flags FrameMapFlag) (FramePoolRef, error) {
	device := dev.(*ffDevice)
	source := src.(*ffFramePool)
	var avFlags int32
	if flags&FrameMapRead != 0 {
		avFlags |= 1 // AV_HWFRAME_MAP_READ
	}
	if flags&FrameMapWrite != 0 {
		avFlags |= 2 // AV_HWFRAME_MAP_WRITE
	}
	var ref uintptr
	res := avHWFrameCtxDerive(&ref, b.avFormat(format), device.ref, source.ref, avFlags)
	if res < 0 || ref == 0 {
		if ref != 0 {
			avBufferUnrefFn(&ref)
		}
		return nil, fmt.Errorf("av_hwframe_ctx_create_derived: %d", res)
	}
	pool := &ffFramePool{b: b, ref: ref}
	pool.loadParams()
	return pool, nil
}

func (b *FFmpegBackend) ValidHardwareFormats(dev DeviceRef) []PixelFormat {
	src := dev.(*ffDevice)
	cptr := avHWFrameConstraints(src.ref, 0)
	if cptr == 0 {
		return nil
	}
	constraints := (*avHWFramesConstraints)(unsafe.Pointer(cptr))
	var out []PixelFormat
	for ptr := constraints.validHWFormats; ptr != 0; ptr += 4 {
		v := *(*int32)(unsafe.Pointer(ptr))
		if v == avPixFmtNone {
			break
		}
		if f := b.goFormat(v); f != PixelFormatNone {
			out = append(out, f)
		}
	}
	avHWFrameConstraintsFree(&cptr)
	return out
}

func (b *FFmpegBackend) Codecs() []*CodecDescriptor {
	b.codecsOnce.Do(b.loadCodecs)
	return b.codecs
}

func (b *FFmpegBackend) loadCodecs() {
	var opaque uintptr
	for {
		ptr := avCodecIterate(&opaque)
		if ptr == 0 {
			return
		}
		c := (*avCodecMirror)(unsafe.Pointer(ptr))
		if c.mediaType != avMediaTypeVideo {
			continue
		}
		name := goStringFromPtr(c.name)
		desc := &CodecDescriptor{
			Name:         name,
			ID:           codecIDForName(name),
			Encoder:      avCodecIsEncoder(ptr) != 0,
			Experimental: c.capabilities&avCodecCapExperimental != 0,
		}
		for p := c.pixFmts; p != 0; p += 4 {
			v := *(*int32)(unsafe.Pointer(p))
			if v == avPixFmtNone {
				break
			}
			if f := b.goFormat(v); f != PixelFormatNone {
				desc.PixelFormats = append(desc.PixelFormats, f)
			}
		}
		for i := int32(0); ; i++ {
			cfgPtr := avCodecGetHWConfig(ptr, i)
			if cfgPtr == 0 {
				break
			}
			cfg := (*avCodecHWConfig)(unsafe.Pointer(cfgPtr))
			dev, ok := b.avToDev[cfg.deviceType]
			if !ok {
				continue
			}
			var methods HWConfigMethod
			if cfg.methods&avCodecHWConfigMethodHWDeviceCtx != 0 {
				methods |= MethodHWDeviceCtx
			}
			if cfg.methods&avCodecHWConfigMethodHWFramesCtx != 0 {
				methods |= MethodHWFramesCtx
			}
			desc.HWConfigs = append(desc.HWConfigs, HWConfig{
				DeviceType: dev,
				Format:     b.goFormat(cfg.pixFmt),
				Methods:    methods,
			})
		}
		b.codecs = append(b.codecs, desc)
	}
}

// codecIDForName maps a registry codec name ("h264", "hevc_vaapi",
// "libx264", ...) to the bitstream format it handles.
func codecIDForName(name string) CodecID {
	// External-library wrappers carry the library name, not the format.
	switch name {
	case "libx264", "libopenh264":
		return CodecH264
	case "libx265":
		return CodecHEVC
	case "libvpx":
		return CodecVP8
	case "libvpx-vp9":
		return CodecVP9
	case "libaom-av1", "libdav1d", "librav1e", "libsvtav1":
		return CodecAV1
	}
	base := name
	if i := strings.IndexByte(base, '_'); i >= 0 {
		base = base[:i]
	}
	switch base {
	case "h264":
		return CodecH264
	case "hevc":
		return CodecHEVC
	case "vp8":
		return CodecVP8
	case "vp9":
		return CodecVP9
	case "av1":
		return CodecAV1
	case "mjpeg":
		return CodecMJPEG
	default:
		return CodecUnknown
	}
}

// goStringFromPtr converts a C string pointer to a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for {
		if *(*byte)(unsafe.Pointer(uintptr(p) + uintptr(length))) == 0 {
			break
		}
		length++
		if length > 1024 { // Safety limit
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}
