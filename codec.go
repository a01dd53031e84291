package hwaccel

import "strings"

// Codec selection: registry filtering by capability category, device type
// and disabled-codec policy, plus the pixel format negotiated alongside.

// IsEncoder is a category predicate for FindCodec selecting encoders.
func IsEncoder(c *CodecDescriptor) bool { return c.Encoder }

// IsDecoder is a category predicate for FindCodec selecting decoders.
func IsDecoder(c *CodecDescriptor) bool { return !c.Encoder }

// codecAllowed applies the disabled-codecs policy to a codec/device pair.
// The policy is a comma-separated token list; a codec is disabled by its
// bare name, the bare ".<device-type>" suffix, "<name>.<device-type>", or
// the catch-all "hw".
func codecAllowed(c *CodecDescriptor, t DeviceType, disabledCodecs string) bool {
	suffix := "." + t.String()
	for _, name := range strings.Split(disabledCodecs, ",") {
		if name == c.Name || name == suffix || name == c.Name+suffix || name == "hw" {
			logger.Info("skipping disabled codec", "codec", c.Name, "type", t.String())
			return false
		}
	}
	return true
}

// FindCodec scans the backend codec registry for a codec with the given id
// that passes the category predicate, is not experimental, supports device
// type t, and is allowed by the disabled-codecs policy. It returns the codec
// together with the hardware pixel format to negotiate. With t == DeviceNone
// the first id match is returned and the format is PixelFormatNone.
func FindCodec(b Backend, id CodecID, t DeviceType, category func(*CodecDescriptor) bool, disabledCodecs string) (*CodecDescriptor, PixelFormat, error) {
	for _, c := range b.Codecs() {
		if !category(c) {
			continue
		}
		if c.ID != id {
			continue
		}
		if c.Experimental {
			continue
		}
		if t == DeviceNone {
			return c, PixelFormatNone, nil
		}

		// Some backends cannot be probed through hardware config
		// descriptors; their encoders advertise the native surface format
		// directly in the supported pixel format list.
		if native, ok := b.NativeFormat(t); ok && c.Encoder {
			for _, f := range c.PixelFormats {
				if f == native && codecAllowed(c, t, disabledCodecs) {
					return c, native, nil
				}
			}
		}

		for _, hw := range c.HWConfigs {
			if hw.DeviceType == t && codecAllowed(c, t, disabledCodecs) {
				return c, hw.Format, nil
			}
		}
	}
	return nil, PixelFormatNone, ErrCodecNotFound
}
