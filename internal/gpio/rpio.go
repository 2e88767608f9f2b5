//go:build linux

package gpio

import (
	"fmt"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// rpioCycle is the PWM cycle length; one count per duty step.
const rpioCycle = 255

// RpioPWM drives a hardware PWM pin through the BCM2835 registers.
// Requires access to /dev/gpiomem or /dev/mem.
type RpioPWM struct {
	pin rpio.Pin
}

// NewRpioPWM maps the GPIO registers and configures pin (BCM numbering,
// must be a PWM capable pin such as 12, 13, 18 or 19) at freq Hz.
func NewRpioPWM(pin, freq int) (*RpioPWM, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio registers: %w", err)
	}

	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)
	// Freq sets the PWM clock; the output frequency is clock / cycle.
	p.Freq(freq * rpioCycle)
	p.DutyCycle(0, rpioCycle)

	return &RpioPWM{pin: p}, nil
}

// SetDuty sets the duty cycle.
func (r *RpioPWM) SetDuty(duty uint8) error {
	r.pin.DutyCycle(uint32(duty), rpioCycle)
	return nil
}

// Close turns the output off and unmaps the registers.
func (r *RpioPWM) Close() error {
	r.pin.DutyCycle(0, rpioCycle)
	r.pin.Mode(rpio.Output)
	r.pin.Low()
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpio registers: %w", err)
	}
	return nil
}
