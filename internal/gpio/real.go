//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealSwitch reads the switch from actual hardware using the Linux GPIO
// character device.
type RealSwitch struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealSwitch requests pin on chipName as an input with pull-up.
func NewRealSwitch(chipName string, pin int) (*RealSwitch, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// The switch shorts the line to ground, so idle must read high.
	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request switch pin %d: %w", pin, err)
	}

	return &RealSwitch{
		chip: chip,
		line: line,
	}, nil
}

// Read returns true while the switch is pressed (raw 0).
func (s *RealSwitch) Read() (bool, error) {
	raw, err := s.line.Value()
	if err != nil {
		return false, fmt.Errorf("read switch pin: %w", err)
	}
	return raw == 0, nil
}

// Close releases GPIO resources.
// The line is reconfigured to input with pull-down (Pi boot default) before
// closing.
func (s *RealSwitch) Close() error {
	var errs []error

	if s.line != nil {
		if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure switch pin: %w", err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
