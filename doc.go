// Package hwaccel negotiates hardware-accelerated video decode/encode over
// an underlying multimedia codec library.
//
// Key pieces include:
//   - AccelIterator: turns an acceleration preference into an ordered list of
//     concrete backend candidates, each with its own disabled-codec policy
//   - CreateDevice/Device: acceleration device creation, including derived
//     (parent-over-child) contexts for interop backends such as QSV
//   - CreateFrames/FramePool: hardware frame pool provisioning and derivation
//   - FindCodec/SelectFormat: codec registry filtering and pixel format
//     selection during decode negotiation
//   - VideoDecoder/VideoEncoder: legacy-style entry points that drive the
//     negotiation during construction and marshal raw frames afterwards
//
// # Architecture
//
//	Decode: AccelIterator -> CreateDevice -> FindCodec -> SelectFormat -> CreateFrames
//	Encode: AccelIterator -> CreateDevice -> FindCodec -> CreateFrames
//
// Every step talks to a Backend, the abstraction over the native
// acceleration/codec library. All failures along the way are non-fatal: a
// candidate that cannot be configured is skipped, and when the candidate
// list is exhausted the caller falls back to software processing.
//
// # Native Libraries
//
// The default Backend binds libavutil/libavcodec dynamically at runtime via
// purego (CGO_ENABLED=0). Set HWACCEL_AVUTIL_PATH / HWACCEL_AVCODEC_PATH to
// override the library locations. Tests use a mock Backend and never touch
// native code.
//
// # Configuration
//
// Policy strings come from an ordered ConfigStore (optionally loaded from
// YAML) with built-in platform defaults:
//   - hw_decoders_<accel>, hw_encoders_<accel>: preferred backend lists
//   - hw_disable_decoders, hw_disabled_encoders: disabled-codec lists
package hwaccel
