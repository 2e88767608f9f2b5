// Package click classifies presses of a single debounced switch into taps,
// multi-tap sequences and long holds.
//
// The classifier never blocks and never reads a clock: the caller passes a
// uint32 millisecond timestamp into every Poll. It must be polled well below
// Short/2 for the timing windows to be accurate.
package click

// State is the classifier's internal state. It doubles as the origin tag on
// emitted events.
type State uint8

const (
	StateScanning State = iota
	StateShortSequence
	StateLongPress
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "SCANNING"
	case StateShortSequence:
		return "SHORT_SEQUENCE"
	case StateLongPress:
		return "LONG_PRESS"
	}
	return "UNKNOWN"
}

// Timing windows in milliseconds.
const (
	Short           uint32 = 170
	Long            uint32 = 1500
	SequenceTimeout        = 2 * Short
)

// Source supplies the debounced switch level and whether it changed since
// the previous call.
type Source interface {
	Update(now uint32) (pressed, changed bool)
}

// Handler receives the origin of an event and the click count. Handlers run
// synchronously inside Poll and must not call back into the classifier.
type Handler func(origin State, count uint8)

// Input is one debounced sample.
type Input struct {
	Pressed bool
	Changed bool
	Now     uint32
}

// Classifier is the click state machine.
type Classifier struct {
	src       Source
	state     State
	pressedAt uint32
	count     uint8 // wraps after 255
	pressed   bool

	onPress   Handler
	onRelease Handler
}

// New creates a classifier in the Scanning state reading from src.
func New(src Source) *Classifier {
	return &Classifier{src: src}
}

// OnPress sets the handler called while the switch is held: each additional
// press of a sequence and the start of a long press. Pass nil to remove it.
func (c *Classifier) OnPress(h Handler) {
	c.onPress = h
}

// OnRelease sets the handler called when a click, sequence or long press
// ends. Pass nil to remove it.
func (c *Classifier) OnRelease(h Handler) {
	c.onRelease = h
}

// Poll reads the source and advances the state machine.
func (c *Classifier) Poll(now uint32) {
	pressed, changed := c.src.Update(now)
	c.Process(Input{Pressed: pressed, Changed: changed, Now: now})
}

// Process advances the state machine with an already-read sample.
func (c *Classifier) Process(in Input) {
	c.pressed = in.Pressed
	now := in.Now

	switch c.state {
	case StateScanning:
		if in.Changed {
			if in.Pressed {
				c.pressedAt = now
				return
			}
			if now-c.pressedAt <= Short {
				c.state = StateShortSequence
				c.count = 1
				return
			}
			// Medium press: between Short and Long.
			c.fireRelease(StateShortSequence, 1)
			return
		}
		if in.Pressed && now-c.pressedAt >= Long {
			c.state = StateLongPress
			c.firePress(StateLongPress, 1)
		}

	case StateLongPress:
		if in.Changed && !in.Pressed {
			c.state = StateScanning
			c.fireRelease(StateLongPress, 1)
		}

	case StateShortSequence:
		if in.Changed {
			if in.Pressed {
				c.pressedAt = now
				c.count++
				c.firePress(StateShortSequence, c.count)
			}
			return
		}
		if !in.Pressed && now-c.pressedAt > SequenceTimeout {
			c.state = StateScanning
			c.fireRelease(StateShortSequence, c.count)
		}
	}
}

func (c *Classifier) firePress(origin State, count uint8) {
	if c.onPress != nil {
		c.onPress(origin, count)
	}
}

func (c *Classifier) fireRelease(origin State, count uint8) {
	if c.onRelease != nil {
		c.onRelease(origin, count)
	}
}

// Idle reports whether no press or sequence is pending, so polling may be
// suspended without losing a click.
func (c *Classifier) Idle(now uint32) bool {
	return c.state == StateScanning && !c.pressed && now-c.pressedAt > Short
}

// State returns the current state.
func (c *Classifier) State() State {
	return c.state
}

// Count returns the number of presses in the current sequence. Only
// meaningful while in StateShortSequence.
func (c *Classifier) Count() uint8 {
	return c.count
}
