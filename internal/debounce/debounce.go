// Package debounce turns a raw, bouncing switch sample into a stable level.
package debounce

import "log"

// DefaultInterval is the time in milliseconds a new raw level must hold
// before it is accepted.
const DefaultInterval uint32 = 25

// Sampler reads the raw switch level (true = pressed).
type Sampler interface {
	Read() (bool, error)
}

// Switch is a non-blocking software debouncer. It implements click.Source.
type Switch struct {
	sampler  Sampler
	interval uint32

	// Current stable (debounced) level
	stable bool
	// Last raw level observed
	pending bool
	// Time when pending was first observed
	pendingSince uint32
	// Whether the first sample has been taken
	baselined bool
	// Whether the previous read failed
	failing bool
}

// New creates a debouncer over sampler. An interval of 0 selects DefaultInterval.
func New(sampler Sampler, interval uint32) *Switch {
	if interval == 0 {
		interval = DefaultInterval
	}
	return &Switch{sampler: sampler, interval: interval}
}

// Update samples the switch. It returns the stable level and whether that
// level changed during this call.
func (s *Switch) Update(now uint32) (pressed, changed bool) {
	raw, err := s.sampler.Read()
	if err != nil {
		if !s.failing {
			log.Printf("debounce: read error: %v", err)
			s.failing = true
		}
		return s.stable, false
	}
	if s.failing {
		log.Printf("debounce: read recovered")
		s.failing = false
	}

	// The first sample is taken as the baseline.
	if !s.baselined {
		s.stable = raw
		s.pending = raw
		s.pendingSince = now
		s.baselined = true
		return s.stable, false
	}

	if raw != s.pending {
		// Bounce or a new edge; restart the settle timer.
		s.pending = raw
		s.pendingSince = now
		return s.stable, false
	}

	if raw != s.stable && now-s.pendingSince >= s.interval {
		s.stable = raw
		return s.stable, true
	}
	return s.stable, false
}

// Pressed returns the stable level without sampling.
func (s *Switch) Pressed() bool {
	return s.stable
}
