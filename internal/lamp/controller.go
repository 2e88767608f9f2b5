package lamp

import (
	"github.com/sweeney/fairy-lamp/internal/animation"
	"github.com/sweeney/fairy-lamp/internal/click"
)

// State is the user-visible lamp state that is published and persisted.
type State struct {
	Power bool
	Level uint8
}

// Command is a request from the gateway. Nil fields are left unchanged.
type Command struct {
	Power      *bool
	Brightness *int // gateway scale; 0 switches off
}

// Counts tracks handled intents since startup.
type Counts struct {
	Toggles       int
	StepsUp       int
	StepsDown     int
	BoundaryHits  int
	GatewayEvents int
}

// Controller wires the click classifier to the animation arbiter.
//
// A single tap toggles power, a double tap steps one level brighter and a
// long press steps one level dimmer. Stepping past a limit plays boundary
// feedback instead.
type Controller struct {
	arbiter    *animation.Arbiter
	classifier *click.Classifier

	power   bool
	level   uint8
	now     uint32
	changed bool
	counts  Counts
}

// NewController creates a controller driving arbiter from classifier events.
// The lamp starts in initial without animating; call Restore to fade in.
func NewController(arbiter *animation.Arbiter, classifier *click.Classifier, initial State) *Controller {
	c := &Controller{
		arbiter:    arbiter,
		classifier: classifier,
		power:      initial.Power,
		level:      clampLevel(int(initial.Level)),
	}
	classifier.OnPress(c.handlePress)
	classifier.OnRelease(c.handleRelease)
	return c
}

// Restore fades to the current state, e.g. after loading it at startup.
func (c *Controller) Restore(now uint32) {
	c.now = now
	c.arbiter.RequestFadeTo(c.targetDuty(), now)
}

// Poll runs one control cycle: classify input, then advance animations.
func (c *Controller) Poll(now uint32) {
	c.now = now
	c.classifier.Poll(now)
	c.arbiter.Tick(now)
}

func (c *Controller) handlePress(origin click.State, count uint8) {
	switch {
	case origin == click.StateShortSequence && count == 2:
		c.counts.StepsUp++
		c.step(1)
	case origin == click.StateLongPress:
		c.counts.StepsDown++
		c.step(-1)
	}
}

func (c *Controller) handleRelease(origin click.State, count uint8) {
	if origin == click.StateShortSequence && count == 1 {
		c.counts.Toggles++
		c.SetPower(!c.power)
	}
}

// step changes the level by delta while the lamp is on.
func (c *Controller) step(delta int) {
	if !c.power {
		return
	}
	next := int(c.level) + delta
	if next < int(MinLevel) || next > int(MaxLevel) {
		c.counts.BoundaryHits++
		c.arbiter.RequestBoundaryFeedback(c.now)
		return
	}
	c.level = uint8(next)
	c.changed = true
	c.arbiter.RequestFadeTo(c.targetDuty(), c.now)
}

// SetPower switches the lamp on or off with a fade.
func (c *Controller) SetPower(on bool) {
	if c.power != on {
		c.changed = true
	}
	c.power = on
	c.arbiter.RequestFadeTo(c.targetDuty(), c.now)
}

// Apply handles a gateway command received at now. A brightness without a
// power field switches the lamp on, matching how dimmers behave on the
// gateway side.
func (c *Controller) Apply(cmd Command, now uint32) {
	c.now = now
	c.counts.GatewayEvents++
	if cmd.Brightness != nil {
		if *cmd.Brightness <= 0 {
			c.SetPower(false)
			return
		}
		level := FromGateway(*cmd.Brightness)
		if level != c.level {
			c.level = level
			c.changed = true
		}
		if cmd.Power == nil {
			c.SetPower(true)
			return
		}
	}
	if cmd.Power != nil {
		c.SetPower(*cmd.Power)
	}
}

func (c *Controller) targetDuty() uint8 {
	if !c.power {
		return 0
	}
	return DutyForLevel(c.level)
}

// Changed returns the state once after each change.
func (c *Controller) Changed() (State, bool) {
	if !c.changed {
		return State{}, false
	}
	c.changed = false
	return c.State(), true
}

// State returns the current state.
func (c *Controller) State() State {
	return State{Power: c.power, Level: c.level}
}

// Counts returns the handled intent counters.
func (c *Controller) Counts() Counts {
	return c.counts
}

// Duty returns the duty the fade is currently at.
func (c *Controller) Duty() uint8 {
	return c.arbiter.Level()
}

// AnimationIdle reports whether no animation is running.
func (c *Controller) AnimationIdle() bool {
	return c.arbiter.Idle()
}

// ClickIdle reports whether no click is pending.
func (c *Controller) ClickIdle(now uint32) bool {
	return c.classifier.Idle(now)
}

// Idle reports whether polling could be suspended without losing input or
// freezing an animation.
func (c *Controller) Idle(now uint32) bool {
	return c.arbiter.Idle() && c.classifier.Idle(now)
}
