// Package animation drives the lamp's output channel without blocking.
// Time is always injected as a uint32 millisecond counter; elapsed time is
// computed with wrapping subtraction so the counter may overflow freely.
package animation

// Output is the physical duty-cycle channel an animation writes to.
type Output interface {
	SetDuty(duty uint8)
}

// FadeSteps is the number of steps every fade is split into.
const FadeSteps = 10

// DefaultStepDuration is the time between fade steps in milliseconds.
const DefaultStepDuration uint32 = 50

// Fade moves the output linearly from its current level to a target level
// in FadeSteps steps, so every transition takes the same total time.
type Fade struct {
	out          Output
	current      float64
	target       float64
	increment    float64 // signed
	stepDuration uint32
	lastStep     uint32
}

// NewFade creates a finished fade at level 0 bound to out.
func NewFade(out Output, stepDuration uint32) *Fade {
	if stepDuration == 0 {
		stepDuration = DefaultStepDuration
	}
	return &Fade{
		out:          out,
		stepDuration: stepDuration,
	}
}

// SetLevel retargets the fade. The new travel starts from the in-flight level.
func (f *Fade) SetLevel(target uint8, now uint32) {
	f.target = float64(target)
	f.increment = (f.target - f.current) / FadeSteps
	f.lastStep = now
}

// Tick advances one step when the step duration has elapsed.
// It returns true when this call completed the fade.
func (f *Fade) Tick(now uint32) bool {
	if f.Finished() {
		return false
	}
	if now-f.lastStep < f.stepDuration {
		return false
	}

	f.lastStep = now
	f.current += f.increment

	// Never travel past the target.
	if f.increment < 0 {
		if f.current < f.target {
			f.current = f.target
		}
	} else if f.current > f.target {
		f.current = f.target
	}

	f.out.SetDuty(uint8(f.current))
	return f.Finished()
}

// Finished reports whether the truncated current level equals the target.
func (f *Fade) Finished() bool {
	return uint8(f.current) == uint8(f.target)
}

// Level returns the truncated in-flight level.
func (f *Fade) Level() uint8 {
	return uint8(f.current)
}

// Target returns the truncated target level.
func (f *Fade) Target() uint8 {
	return uint8(f.target)
}
