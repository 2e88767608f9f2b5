package animation

// Kind identifies which animation finished.
type Kind string

const (
	KindFade  Kind = "FADE"
	KindBlink Kind = "BLINK"
)

// Config holds the animation timings.
type Config struct {
	StepDuration  uint32 // ms per fade step
	BlinkAmount   uint8  // off-phases per boundary feedback
	BlinkInterval uint32 // ms per blink phase
}

// DefaultConfig returns the timings used by the lamp.
func DefaultConfig() Config {
	return Config{
		StepDuration:  DefaultStepDuration,
		BlinkAmount:   DefaultBlinkAmount,
		BlinkInterval: DefaultBlinkInterval,
	}
}

// Arbiter owns the fade and blink animations sharing one output.
// Boundary feedback has strict priority: the fade is not advanced while a
// blink sequence is running.
type Arbiter struct {
	fade  *Fade
	blink *Blink

	// OnFinished, if set, is called synchronously from Tick when an
	// animation completes.
	OnFinished func(Kind)
}

// NewArbiter creates an idle arbiter writing to out.
func NewArbiter(out Output, cfg Config) *Arbiter {
	return &Arbiter{
		fade:  NewFade(out, cfg.StepDuration),
		blink: NewBlink(out, cfg.BlinkAmount, cfg.BlinkInterval),
	}
}

// RequestBoundaryFeedback starts a blink sequence at the current fade level.
// Ignored while a sequence is already running.
func (a *Arbiter) RequestBoundaryFeedback(now uint32) {
	if !a.blink.Finished() {
		return
	}
	a.blink.Start(a.fade.Level(), now)
}

// RequestFadeTo retargets the fade. While boundary feedback is playing the
// fade only progresses once the sequence has completed.
func (a *Arbiter) RequestFadeTo(level uint8, now uint32) {
	a.fade.SetLevel(level, now)
}

// Tick advances exactly one of the animations.
func (a *Arbiter) Tick(now uint32) {
	if !a.blink.Finished() {
		if a.blink.Tick(now) {
			a.finished(KindBlink)
		}
		return
	}
	if a.fade.Tick(now) {
		a.finished(KindFade)
	}
}

func (a *Arbiter) finished(k Kind) {
	if a.OnFinished != nil {
		a.OnFinished(k)
	}
}

// Idle reports whether both animations are finished.
func (a *Arbiter) Idle() bool {
	return a.blink.Finished() && a.fade.Finished()
}

// Blinking reports whether boundary feedback is playing.
func (a *Arbiter) Blinking() bool {
	return !a.blink.Finished()
}

// Level returns the current fade level.
func (a *Arbiter) Level() uint8 {
	return a.fade.Level()
}

// Target returns the level the fade is heading to.
func (a *Arbiter) Target() uint8 {
	return a.fade.Target()
}
