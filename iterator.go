package hwaccel

import "strings"

// Candidate is one parsed entry of the negotiation list: a backend type name
// with an optional device-subname filter ("vaapi.iHD" restricts VAAPI to
// devices whose name contains "iHD"). The empty candidate stands for
// software processing.
type Candidate struct {
	Raw      string     // full token as configured
	TypeName string     // backend type name part
	Subname  string     // device-subname filter, "" when absent
	Type     DeviceType // resolved type, DeviceNone when unrecognized
}

// AccelIterator drives the negotiation loop: it resolves an acceleration
// preference into an ordered candidate list and hands out one Candidate per
// ParseNext call. The caller attempts CreateDevice for each candidate until
// one succeeds or Good reports false, then falls back to software.
type AccelIterator struct {
	backend        Backend
	candidates     []string
	pos            int
	current        Candidate
	disabledCodecs string
}

// NewAccelIterator builds the candidate list for the given preference. With
// AccelerationAny the list ends with a single empty candidate standing for
// software fallback. A specific preference whose resolved backend list is
// empty yields an immediately exhausted iterator: the requested
// configuration is not available and there is nothing to fall back to
// within hardware.
func NewAccelIterator(b Backend, pref AccelerationType, isEncoder bool, cfg *ConfigStore) *AccelIterator {
	it := &AccelIterator{backend: b}

	accelList := ""
	if pref != AccelerationNone {
		if isEncoder {
			accelList = EncoderAccelerators(pref, cfg)
		} else {
			accelList = DecoderAccelerators(pref, cfg)
		}
	}
	if pref == AccelerationAny && accelList != "" {
		accelList += "," // software fallback entry at the end of the list
	}
	logger.Debug("allowed acceleration types",
		"preference", pref.String(), "list", accelList)

	if accelList == "" && pref != AccelerationNone && pref != AccelerationAny {
		// The specifically requested backend resolved to nothing; leave
		// the iterator exhausted so construction fails over to software
		// only by the caller's explicit choice.
		it.candidates = nil
	} else {
		it.candidates = strings.Split(accelList, ",")
	}

	if pref != AccelerationNone {
		if isEncoder {
			it.disabledCodecs = EncoderDisabledCodecs(cfg)
		} else {
			it.disabledCodecs = DecoderDisabledCodecs(cfg)
		}
		logger.Debug("disabled codecs", "list", it.disabledCodecs)
	}
	return it
}

// Good reports whether unconsumed candidates remain.
func (it *AccelIterator) Good() bool {
	return it.pos < len(it.candidates)
}

// ParseNext consumes the next candidate token, splitting it on the first '.'
// into backend type name and device subname, and resolving the type through
// the backend's name lookup. Calling ParseNext past the end leaves the
// current candidate empty.
func (it *AccelIterator) ParseNext() {
	if !it.Good() {
		it.current = Candidate{}
		return
	}
	raw := it.candidates[it.pos]
	it.pos++

	c := Candidate{Raw: raw, TypeName: raw}
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		c.TypeName = raw[:i]
		c.Subname = raw[i+1:]
	}
	if c.TypeName != "" {
		c.Type = it.backend.DeviceTypeByName(c.TypeName)
		if c.Type == DeviceNone {
			logger.Info("unrecognized acceleration backend name", "name", c.TypeName)
		}
	}
	it.current = c
}

// Candidate returns the candidate produced by the last ParseNext.
func (it *AccelIterator) Candidate() Candidate { return it.current }

// DisabledCodecs returns the disabled-codecs policy resolved once for this
// negotiation.
func (it *AccelIterator) DisabledCodecs() string { return it.disabledCodecs }
