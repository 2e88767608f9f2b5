package animation

// Defaults for the boundary feedback sequence.
const (
	DefaultBlinkAmount   uint8  = 3
	DefaultBlinkInterval uint32 = 300
)

// Blink plays a fixed number of off-blinks and always ends with the output on.
// The first off phase begins as soon as the sequence is started.
type Blink struct {
	out       Output
	amount    uint8
	interval  uint32
	counter   uint8
	onLevel   uint8
	on        bool
	startedAt uint32
}

// NewBlink creates a finished blink sequence of amount off-phases, each phase
// lasting interval milliseconds. An amount of 0 is treated as 1.
func NewBlink(out Output, amount uint8, interval uint32) *Blink {
	if amount == 0 {
		amount = 1
	}
	return &Blink{
		out:      out,
		amount:   amount,
		interval: interval,
		counter:  amount,
		on:       true,
	}
}

// Start begins a sequence that returns to onLevel when done.
func (b *Blink) Start(onLevel uint8, now uint32) {
	b.counter = 1
	b.onLevel = onLevel
	b.on = false
	b.startedAt = now
	b.out.SetDuty(0)
}

// Tick toggles the phase once the interval has elapsed.
// It returns true when this call completed the sequence.
func (b *Blink) Tick(now uint32) bool {
	if b.Finished() {
		return false
	}
	if now-b.startedAt < b.interval {
		return false
	}

	b.on = !b.on
	if b.on {
		b.out.SetDuty(b.onLevel)
	} else {
		b.out.SetDuty(0)
		b.counter++
	}
	b.startedAt = now
	return b.Finished()
}

// Finished reports whether all off-phases were played and the output is on.
func (b *Blink) Finished() bool {
	return b.counter == b.amount && b.on
}
