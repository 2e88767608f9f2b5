package gpio

import "errors"

// FakeSwitch is a test double that returns scripted switch levels.
type FakeSwitch struct {
	// Samples contains scripted pressed values to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeSwitch creates a FakeSwitch with the given samples.
func NewFakeSwitch(samples []bool) *FakeSwitch {
	return &FakeSwitch{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSwitch) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the switch as closed.
func (f *FakeSwitch) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first sample.
func (f *FakeSwitch) Reset() {
	f.index = 0
	f.Closed = false
}

// FakePWM records duty writes for test assertions.
type FakePWM struct {
	// Duties contains every successfully written duty.
	Duties []uint8

	// WriteError, if set, will be returned by SetDuty.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakePWM creates a FakePWM.
func NewFakePWM() *FakePWM {
	return &FakePWM{}
}

// SetDuty records duty.
func (f *FakePWM) SetDuty(duty uint8) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Duties = append(f.Duties, duty)
	return nil
}

// Close marks the PWM as closed.
func (f *FakePWM) Close() error {
	f.Closed = true
	return nil
}

// Last returns the last written duty, or 0 if none.
func (f *FakePWM) Last() uint8 {
	if len(f.Duties) == 0 {
		return 0
	}
	return f.Duties[len(f.Duties)-1]
}
