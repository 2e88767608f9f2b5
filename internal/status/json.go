package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/fairy-lamp/internal/lamp"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Power         string     `json:"power"`
	Level         int        `json:"level"`
	Brightness    int        `json:"brightness"`
	Duty          int        `json:"duty"`
	Idle          IdleJSON   `json:"idle"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// IdleJSON reports whether the state machines are at rest.
type IdleJSON struct {
	Animation bool `json:"animation"`
	Click     bool `json:"click"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
	Dropped   int    `json:"dropped"`
}

// CountsJSON is the JSON representation of handled intents.
type CountsJSON struct {
	Toggles       int `json:"toggles"`
	StepsUp       int `json:"steps_up"`
	StepsDown     int `json:"steps_down"`
	BoundaryHits  int `json:"boundary_hits"`
	GatewayEvents int `json:"gateway_events"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Node        string `json:"node"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	PWMBackend  string `json:"pwm_backend"`
}

func buildInner(snap Snapshot) StatusInner {
	power := "OFF"
	if snap.Lamp.Power {
		power = "ON"
	}

	return StatusInner{
		Power:         power,
		Level:         int(snap.Lamp.Level),
		Brightness:    lamp.ToGateway(snap.Lamp.Level),
		Duty:          int(snap.Duty),
		Idle:          IdleJSON{Animation: snap.AnimationIdle, Click: snap.ClickIdle},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Buffered:  snap.MQTTBuffered,
			Dropped:   snap.MQTTDropped,
		},
		Counts: CountsJSON{
			Toggles:       snap.Counts.Toggles,
			StepsUp:       snap.Counts.StepsUp,
			StepsDown:     snap.Counts.StepsDown,
			BoundaryHits:  snap.Counts.BoundaryHits,
			GatewayEvents: snap.Counts.GatewayEvents,
		},
		Config: ConfigJSON{
			Node:        snap.Config.Node,
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			PWMBackend:  snap.Config.PWMBackend,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
