// Package status provides a thread-safe status tracker for the fairy-lamp daemon.
// It is written by the control loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/fairy-lamp/internal/lamp"
)

// Config contains daemon configuration for display.
type Config struct {
	Node        string
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	PWMBackend  string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Lamp          lamp.State
	Duty          uint8
	AnimationIdle bool
	ClickIdle     bool
	Counts        lamp.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTBuffered  int // messages waiting for a connection
	MQTTDropped   int // messages lost to buffer overflow since startup
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:     startTime,
			AnimationIdle: true,
			ClickIdle:     true,
			Config:        cfg,
		},
		now: time.Now,
	}
}

// Update records the lamp state. Called from runLoop on every tick.
func (t *Tracker) Update(st lamp.State, duty uint8, animIdle, clickIdle bool, counts lamp.Counts) {
	t.mu.Lock()
	t.snap.Lamp = st
	t.snap.Duty = duty
	t.snap.AnimationIdle = animIdle
	t.snap.ClickIdle = clickIdle
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTBuffer records the publisher's offline queue depth and drop count.
func (t *Tracker) SetMQTTBuffer(buffered, dropped int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = buffered
	t.snap.MQTTDropped = dropped
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
