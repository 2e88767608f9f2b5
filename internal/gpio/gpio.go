// Package gpio provides switch input and PWM output with hardware abstraction.
// The real switch uses the Linux GPIO character device; PWM is driven either
// through periph.io or through the BCM2835 registers via go-rpio.
// The fake implementations allow testing without hardware.
package gpio

import "log"

// Switch reads the raw momentary switch.
type Switch interface {
	// Read returns true while the switch is pressed.
	// The raw line is active low (pull-up, switch to ground).
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// PWM drives the LED string.
type PWM interface {
	// SetDuty sets the duty cycle, 0 = off, 255 = fully on.
	SetDuty(duty uint8) error

	// Close switches the output off and releases it.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinSwitch = 17
	DefaultPinPWM    = 18
)

// DefaultPWMFrequency is the PWM carrier frequency in Hz.
const DefaultPWMFrequency = 1000

// DutyWriter adapts a PWM to the animation output. Write errors are logged
// once per failure run, since the animation engine cannot act on them.
type DutyWriter struct {
	pwm     PWM
	failing bool
}

// NewDutyWriter wraps pwm.
func NewDutyWriter(pwm PWM) *DutyWriter {
	return &DutyWriter{pwm: pwm}
}

// SetDuty writes duty to the PWM.
func (w *DutyWriter) SetDuty(duty uint8) {
	if err := w.pwm.SetDuty(duty); err != nil {
		if !w.failing {
			log.Printf("pwm: set duty %d: %v", duty, err)
			w.failing = true
		}
		return
	}
	if w.failing {
		log.Printf("pwm: write recovered")
		w.failing = false
	}
}
