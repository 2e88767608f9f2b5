// Package config holds the daemon configuration, optionally loaded from a
// TOML file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/sweeney/fairy-lamp/internal/animation"
	"github.com/sweeney/fairy-lamp/internal/click"
	"github.com/sweeney/fairy-lamp/internal/debounce"
	"github.com/sweeney/fairy-lamp/internal/gpio"
	"github.com/sweeney/fairy-lamp/internal/mqtt"
)

// PWM backends.
const (
	BackendPeriph = "periph"
	BackendRpio   = "rpio"
	BackendNone   = "none" // log-only output, for running without hardware
)

// Config is the daemon configuration. Durations are in milliseconds.
type Config struct {
	Node        string `toml:"node"`
	Broker      string `toml:"broker"`
	TopicPrefix string `toml:"topic_prefix"`
	HTTPAddr    string `toml:"http_addr"`
	StateFile   string `toml:"state_file"`

	PollMs      int64 `toml:"poll_ms"`
	DebounceMs  int64 `toml:"debounce_ms"`
	HeartbeatMs int64 `toml:"heartbeat_ms"`

	Chip         string `toml:"chip"`
	PinSwitch    int    `toml:"pin_switch"`
	PWMBackend   string `toml:"pwm_backend"`
	PinPWM       int    `toml:"pin_pwm"`
	PWMFrequency int    `toml:"pwm_frequency"`

	Animation AnimationConfig `toml:"animation"`
}

// AnimationConfig holds the animation timings.
type AnimationConfig struct {
	FadeStepMs      int64 `toml:"fade_step_ms"`
	BlinkAmount     int   `toml:"blink_amount"`
	BlinkIntervalMs int64 `toml:"blink_interval_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Node:        "lantern",
		Broker:      "tcp://192.168.1.200:1883",
		TopicPrefix: mqtt.DefaultPrefix,
		HTTPAddr:    ":80",
		StateFile:   "/var/lib/fairy-lamp/state.toml",

		PollMs:      10,
		DebounceMs:  int64(debounce.DefaultInterval),
		HeartbeatMs: 30 * 60 * 1000,

		Chip:         "gpiochip0",
		PinSwitch:    gpio.DefaultPinSwitch,
		PWMBackend:   BackendPeriph,
		PinPWM:       gpio.DefaultPinPWM,
		PWMFrequency: gpio.DefaultPWMFrequency,

		Animation: AnimationConfig{
			FadeStepMs:      int64(animation.DefaultStepDuration),
			BlinkAmount:     int(animation.DefaultBlinkAmount),
			BlinkIntervalMs: int64(animation.DefaultBlinkInterval),
		},
	}
}

// Load decodes the TOML file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}

// Validate checks values that would make the daemon misbehave.
func (c Config) Validate() error {
	if c.Node == "" {
		return fmt.Errorf("node name is required")
	}
	if c.PollMs <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", c.PollMs)
	}
	if c.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms must not be negative, got %d", c.DebounceMs)
	}
	switch c.PWMBackend {
	case BackendPeriph, BackendRpio, BackendNone:
	default:
		return fmt.Errorf("unknown pwm_backend %q", c.PWMBackend)
	}
	if c.PWMFrequency <= 0 {
		return fmt.Errorf("pwm_frequency must be positive, got %d", c.PWMFrequency)
	}
	if c.Animation.FadeStepMs <= 0 || c.Animation.BlinkIntervalMs <= 0 {
		return fmt.Errorf("animation timings must be positive")
	}
	if c.Animation.BlinkAmount < 1 || c.Animation.BlinkAmount > 255 {
		return fmt.Errorf("blink_amount must be 1..255, got %d", c.Animation.BlinkAmount)
	}
	return nil
}

// pollSamplesPerWindow is how many polls must fit in half the short-press
// window for taps and sequence gaps to be classified reliably.
const pollSamplesPerWindow = 2

// MaxPollMs is the slowest poll interval that keeps click timing reliable.
const MaxPollMs = int64(click.Short) / 2 / pollSamplesPerWindow

// PollTooSlow reports whether the poll interval is too coarse for the
// click timing windows to be classified reliably.
func (c Config) PollTooSlow() bool {
	return c.PollMs > MaxPollMs
}

// AnimationTimings converts the animation section for the arbiter.
func (c Config) AnimationTimings() animation.Config {
	return animation.Config{
		StepDuration:  uint32(c.Animation.FadeStepMs),
		BlinkAmount:   uint8(c.Animation.BlinkAmount),
		BlinkInterval: uint32(c.Animation.BlinkIntervalMs),
	}
}
