package hwaccel

// Policy resolution: per-negotiation configuration strings derived from the
// ConfigStore with built-in platform defaults. Pure functions of their
// inputs; the default tables live in policy_defaults_windows.go and
// policy_defaults_other.go.

// DecoderAccelerators resolves the preferred decoder backend list for the
// given acceleration type: the explicit "hw_decoders_<name>" entry when
// present, otherwise the platform default table.
func DecoderAccelerators(a AccelerationType, cfg *ConfigStore) string {
	if v, ok := cfg.Get("hw_decoders_" + a.String()); ok {
		return v
	}
	return defaultDecoderAccelerators(a)
}

// EncoderAccelerators resolves the preferred encoder backend list, keyed by
// "hw_encoders_<name>".
func EncoderAccelerators(a AccelerationType, cfg *ConfigStore) string {
	if v, ok := cfg.Get("hw_encoders_" + a.String()); ok {
		return v
	}
	return defaultEncoderAccelerators(a)
}

// DecoderDisabledCodecs resolves the decoder disabled-codec list, keyed by
// "hw_disable_decoders".
func DecoderDisabledCodecs(cfg *ConfigStore) string {
	if v, ok := cfg.Get("hw_disable_decoders"); ok {
		return v
	}
	return defaultDecoderDisabledCodecs
}

// EncoderDisabledCodecs resolves the encoder disabled-codec list, keyed by
// "hw_disabled_encoders".
func EncoderDisabledCodecs(cfg *ConfigStore) string {
	if v, ok := cfg.Get("hw_disabled_encoders"); ok {
		return v
	}
	return defaultEncoderDisabledCodecs
}
