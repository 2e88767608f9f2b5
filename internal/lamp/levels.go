// Package lamp maps user intents onto the animation engine: power toggling,
// brightness stepping with boundary feedback, and gateway commands.
package lamp

// Brightness levels. The lamp deliberately has few levels; the gateway's
// 1..100 scale is mapped onto them.
const (
	MinLevel     uint8 = 1
	MaxLevel     uint8 = 15
	DefaultLevel uint8 = 5

	MinGateway = 1
	MaxGateway = 100

	// Duty written for level 0; lower duties leave the LED string dark.
	minDuty = 10
	maxDuty = 255
)

// scale linearly maps x from [inMin, inMax] onto [outMin, outMax] with
// integer truncation.
func scale(x, inMin, inMax, outMin, outMax int) int {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clampLevel(l int) uint8 {
	if l < int(MinLevel) {
		return MinLevel
	}
	if l > int(MaxLevel) {
		return MaxLevel
	}
	return uint8(l)
}

// DutyForLevel returns the PWM duty for a brightness level.
func DutyForLevel(level uint8) uint8 {
	if level > MaxLevel {
		level = MaxLevel
	}
	return uint8(scale(int(level), 0, int(MaxLevel), minDuty, maxDuty))
}

// FromGateway converts a gateway brightness (1..100) to a lamp level.
// Out-of-range values are clamped.
func FromGateway(pct int) uint8 {
	if pct < MinGateway {
		pct = MinGateway
	}
	if pct > MaxGateway {
		pct = MaxGateway
	}
	return clampLevel(scale(pct, MinGateway, MaxGateway, int(MinLevel), int(MaxLevel)))
}

// ToGateway converts a lamp level to the gateway's 1..100 scale.
func ToGateway(level uint8) int {
	return scale(int(clampLevel(int(level))), int(MinLevel), int(MaxLevel), MinGateway, MaxGateway)
}
