package hwaccel

// SelectFormat chooses the pixel format during decode negotiation. The
// backend decode loop calls it with the candidate formats for the stream,
// in decreasing order of preference.
//
// With no acceleration device attached the first candidate wins. Otherwise
// the candidates are matched against the codec's hardware configurations for
// the attached device type; when a matching configuration requires a frame
// pool, the pool is provisioned at the context's current resolution and the
// context's software format is pinned to DefaultSWFormat. The first
// candidate that configures successfully is returned; if none does, the
// first candidate is returned and decoding proceeds in software.
func SelectFormat(b Backend, ctx *CodecContext, candidates []PixelFormat) PixelFormat {
	if len(candidates) == 0 {
		return PixelFormatNone
	}
	if ctx.Device == nil {
		return candidates[0]
	}
	t := ctx.Device.Type()
	for _, hw := range ctx.Codec.HWConfigs {
		if hw.DeviceType != t {
			continue
		}
		for _, f := range candidates {
			if f != hw.Format {
				continue
			}
			if hw.Methods&MethodHWFramesCtx == 0 {
				continue
			}
			ctx.SWFormat = DefaultSWFormat
			pool, err := CreateFrames(b, ctx, ctx.Device, ctx.Width, ctx.Height, f)
			if err != nil {
				logger.Debug("frame pool provisioning failed during format selection",
					"format", f.String(), "error", err)
				continue
			}
			ctx.Frames = pool
			return f
		}
	}
	logger.Debug("no hardware format selected, using default", "format", candidates[0].String())
	return candidates[0]
}
