//go:build !linux

package gpio

import "errors"

// RealSwitch is not available on non-Linux platforms.
type RealSwitch struct{}

// NewRealSwitch returns an error on non-Linux platforms.
func NewRealSwitch(chipName string, pin int) (*RealSwitch, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (s *RealSwitch) Read() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *RealSwitch) Close() error {
	return nil
}

// RpioPWM is not available on non-Linux platforms.
type RpioPWM struct{}

// NewRpioPWM returns an error on non-Linux platforms.
func NewRpioPWM(pin, freq int) (*RpioPWM, error) {
	return nil, errors.New("gpio: rpio pwm not supported on this platform (requires Linux)")
}

// SetDuty is not implemented on non-Linux platforms.
func (r *RpioPWM) SetDuty(duty uint8) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RpioPWM) Close() error {
	return nil
}
