package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PeriphPWM drives a PWM pin through periph.io. On a Raspberry Pi this uses
// the hardware PWM block for PWM capable pins and DMA driven PWM otherwise.
type PeriphPWM struct {
	pin  pgpio.PinIO
	freq physic.Frequency
}

// NewPeriphPWM initializes the host drivers and looks up pin by name
// (e.g. "GPIO18").
func NewPeriphPWM(name string, freq int) (*PeriphPWM, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pwm pin %q not found", name)
	}
	pwm := &PeriphPWM{
		pin:  p,
		freq: physic.Frequency(freq) * physic.Hertz,
	}
	if err := pwm.SetDuty(0); err != nil {
		return nil, err
	}
	return pwm, nil
}

// SetDuty sets the duty cycle.
func (p *PeriphPWM) SetDuty(duty uint8) error {
	d := pgpio.Duty(uint64(pgpio.DutyMax) * uint64(duty) / 255)
	if err := p.pin.PWM(d, p.freq); err != nil {
		return fmt.Errorf("pwm %s: %w", p.pin.Name(), err)
	}
	return nil
}

// Close drives the pin low and halts it.
func (p *PeriphPWM) Close() error {
	var errs []error
	if err := p.pin.Out(pgpio.Low); err != nil {
		errs = append(errs, fmt.Errorf("drive %s low: %w", p.pin.Name(), err))
	}
	if err := p.pin.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("halt %s: %w", p.pin.Name(), err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
