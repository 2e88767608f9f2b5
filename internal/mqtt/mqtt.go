// Package mqtt publishes lamp state to the home-automation gateway and
// receives level commands from it, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/fairy-lamp/internal/lamp"
)

// DefaultPrefix is the topic prefix; the node name is appended.
const DefaultPrefix = "home/fairy-lamp"

// Topics holds the per-node topic names.
type Topics struct {
	State  string // lamp state changes
	System string // lifecycle events
	Set    string // incoming commands
}

// TopicsFor returns the topics for node under prefix.
func TopicsFor(prefix, node string) Topics {
	base := strings.TrimSuffix(prefix, "/") + "/" + node
	return Topics{
		State:  base + "/state",
		System: base + "/system",
		Set:    base + "/set",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a lamp state event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event LampEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// BufferStatus reports the offline queue of a publisher.
type BufferStatus interface {
	// Buffered returns the number of messages waiting to be sent.
	Buffered() int
	// Dropped returns the number of messages lost to overflow since startup.
	Dropped() int
}

// LampEvent is a lamp state change to be published.
type LampEvent struct {
	Timestamp time.Time
	Event     string // "POWER", "LEVEL" or "RESTORED"
	State     lamp.State
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Lamp LampPayload `json:"lamp"`
}

// LampPayload contains the lamp event details.
type LampPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Power      string `json:"power"`
	Level      int    `json:"level"`
	Brightness int    `json:"brightness"` // gateway scale 1..100
}

// FormatPayload creates the JSON payload for a lamp event.
func FormatPayload(event LampEvent) ([]byte, error) {
	power := "OFF"
	if event.State.Power {
		power = "ON"
	}
	payload := Payload{
		Lamp: LampPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      event.Event,
			Power:      power,
			Level:      int(event.State.Level),
			Brightness: lamp.ToGateway(event.State.Level),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// CommandPayload is the JSON accepted on the set topic.
type CommandPayload struct {
	Power      *string `json:"power,omitempty"`      // "ON"/"OFF" or "1"/"0"
	Brightness *int    `json:"brightness,omitempty"` // 0..100, 0 switches off
}

// ErrEmptyCommand is returned for a command with no fields set.
var ErrEmptyCommand = errors.New("command has neither power nor brightness")

// ParseCommand decodes a set-topic payload into a lamp command.
func ParseCommand(data []byte) (lamp.Command, error) {
	var p CommandPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return lamp.Command{}, fmt.Errorf("decode command: %w", err)
	}
	if p.Power == nil && p.Brightness == nil {
		return lamp.Command{}, ErrEmptyCommand
	}

	var cmd lamp.Command
	if p.Power != nil {
		var on bool
		switch strings.ToUpper(*p.Power) {
		case "ON", "1":
			on = true
		case "OFF", "0":
			on = false
		default:
			return lamp.Command{}, fmt.Errorf("invalid power value %q", *p.Power)
		}
		cmd.Power = &on
	}
	if p.Brightness != nil {
		b := *p.Brightness
		if b < 0 || b > lamp.MaxGateway {
			return lamp.Command{}, fmt.Errorf("brightness %d out of range 0..%d", b, lamp.MaxGateway)
		}
		cmd.Brightness = &b
	}
	return cmd, nil
}
