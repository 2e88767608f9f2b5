package click

import (
	"testing"
)

type event struct {
	press  bool
	origin State
	count  uint8
}

func newRecorded() (*Classifier, *[]event) {
	c := New(nil)
	var events []event
	c.OnPress(func(origin State, count uint8) {
		events = append(events, event{press: true, origin: origin, count: count})
	})
	c.OnRelease(func(origin State, count uint8) {
		events = append(events, event{press: false, origin: origin, count: count})
	})
	return c, &events
}

func press(c *Classifier, now uint32)   { c.Process(Input{Pressed: true, Changed: true, Now: now}) }
func release(c *Classifier, now uint32) { c.Process(Input{Pressed: false, Changed: true, Now: now}) }
func hold(c *Classifier, now uint32)    { c.Process(Input{Pressed: true, Now: now}) }
func idle(c *Classifier, now uint32)    { c.Process(Input{Pressed: false, Now: now}) }

func TestTap(t *testing.T) {
	c, events := newRecorded()

	press(c, 0)
	release(c, 50)
	if c.State() != StateShortSequence {
		t.Fatalf("expected ShortSequence, got %s", c.State())
	}
	if c.Count() != 1 {
		t.Errorf("expected count 1, got %d", c.Count())
	}
	if len(*events) != 0 {
		t.Fatalf("expected no events yet, got %v", *events)
	}

	idle(c, 340) // 340 after the press is not yet past the timeout
	if len(*events) != 0 {
		t.Fatalf("expected no events at the timeout edge, got %v", *events)
	}

	idle(c, 400)
	if len(*events) != 1 {
		t.Fatalf("expected 1 event, got %v", *events)
	}
	want := event{press: false, origin: StateShortSequence, count: 1}
	if (*events)[0] != want {
		t.Errorf("got %+v, want %+v", (*events)[0], want)
	}
	if c.State() != StateScanning {
		t.Errorf("expected Scanning, got %s", c.State())
	}
}

func TestDoubleTap(t *testing.T) {
	c, events := newRecorded()

	press(c, 0)
	release(c, 50)
	if len(*events) != 0 {
		t.Fatalf("expected no events after first release, got %v", *events)
	}

	press(c, 200)
	if len(*events) != 1 {
		t.Fatalf("expected press event, got %v", *events)
	}
	if want := (event{press: true, origin: StateShortSequence, count: 2}); (*events)[0] != want {
		t.Errorf("got %+v, want %+v", (*events)[0], want)
	}

	release(c, 250)
	if len(*events) != 1 {
		t.Fatalf("release inside sequence should not emit, got %v", *events)
	}

	idle(c, 600)
	if len(*events) != 2 {
		t.Fatalf("expected release event, got %v", *events)
	}
	if want := (event{press: false, origin: StateShortSequence, count: 2}); (*events)[1] != want {
		t.Errorf("got %+v, want %+v", (*events)[1], want)
	}
}

func TestTripleTap(t *testing.T) {
	c, events := newRecorded()

	press(c, 0)
	release(c, 60)
	press(c, 150)
	release(c, 210)
	press(c, 300)
	release(c, 360)
	for now := uint32(380); now <= 700; now += 20 {
		idle(c, now)
	}

	want := []event{
		{press: true, origin: StateShortSequence, count: 2},
		{press: true, origin: StateShortSequence, count: 3},
		{press: false, origin: StateShortSequence, count: 3},
	}
	if len(*events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), *events)
	}
	for i := range want {
		if (*events)[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, (*events)[i], want[i])
		}
	}
}

func TestMediumPress(t *testing.T) {
	c, events := newRecorded()

	press(c, 0)
	for now := uint32(20); now < 500; now += 20 {
		hold(c, now)
		if c.State() != StateScanning {
			t.Fatalf("t=%d: expected Scanning, got %s", now, c.State())
		}
	}
	release(c, 500)

	if c.State() != StateScanning {
		t.Errorf("expected Scanning after medium press, got %s", c.State())
	}
	if len(*events) != 1 {
		t.Fatalf("expected 1 event, got %v", *events)
	}
	if want := (event{press: false, origin: StateShortSequence, count: 1}); (*events)[0] != want {
		t.Errorf("got %+v, want %+v", (*events)[0], want)
	}
}

func TestShortBoundary(t *testing.T) {
	tests := []struct {
		name      string
		held      uint32
		wantState State
		wantNow   int // events emitted at release
	}{
		{"exactly short", Short, StateShortSequence, 0},
		{"one past short", Short + 1, StateScanning, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, events := newRecorded()
			press(c, 1000)
			release(c, 1000+tt.held)
			if c.State() != tt.wantState {
				t.Errorf("state: got %s, want %s", c.State(), tt.wantState)
			}
			if len(*events) != tt.wantNow {
				t.Errorf("events: got %v, want %d", *events, tt.wantNow)
			}
		})
	}
}

func TestLongPress(t *testing.T) {
	c, events := newRecorded()

	press(c, 0)
	hold(c, 1499)
	if len(*events) != 0 {
		t.Fatalf("expected no event before Long, got %v", *events)
	}
	hold(c, 1500)
	if c.State() != StateLongPress {
		t.Fatalf("expected LongPress, got %s", c.State())
	}
	if len(*events) != 1 {
		t.Fatalf("expected press event, got %v", *events)
	}
	if want := (event{press: true, origin: StateLongPress, count: 1}); (*events)[0] != want {
		t.Errorf("got %+v, want %+v", (*events)[0], want)
	}

	// Holding longer fires nothing more.
	for now := uint32(1520); now < 2000; now += 20 {
		hold(c, now)
	}
	if len(*events) != 1 {
		t.Fatalf("expected no extra events while held, got %v", *events)
	}

	release(c, 2000)
	if len(*events) != 2 {
		t.Fatalf("expected release event, got %v", *events)
	}
	if want := (event{press: false, origin: StateLongPress, count: 1}); (*events)[1] != want {
		t.Errorf("got %+v, want %+v", (*events)[1], want)
	}
	if c.State() != StateScanning {
		t.Errorf("expected Scanning, got %s", c.State())
	}
}

func TestIdle(t *testing.T) {
	c, _ := newRecorded()

	idle(c, 1000)
	if !c.Idle(1000) {
		t.Error("expected idle with switch released long after boot")
	}

	press(c, 2000)
	if c.Idle(2100) {
		t.Error("expected not idle while pressed")
	}

	release(c, 2100) // tap: enters ShortSequence
	if c.Idle(2200) {
		t.Error("expected not idle in ShortSequence")
	}

	idle(c, 2500) // sequence times out
	if c.State() != StateScanning {
		t.Fatalf("expected Scanning, got %s", c.State())
	}
	if !c.Idle(2500) {
		t.Error("expected idle after sequence ended")
	}

	// The idle window counts from the press timestamp.
	press(c, 3000)
	release(c, 3400)
	if c.Idle(3170) {
		t.Error("expected not idle within Short of the press timestamp")
	}
	if !c.Idle(3171) {
		t.Error("expected idle after Short has elapsed")
	}
}

func TestIdleFalseInLongPress(t *testing.T) {
	c, _ := newRecorded()
	press(c, 0)
	hold(c, 1500)
	if c.Idle(1600) {
		t.Error("expected not idle in LongPress")
	}
}

func TestCountWraps(t *testing.T) {
	c, events := newRecorded()

	now := uint32(0)
	press(c, now)
	now += 20
	release(c, now)
	for i := 0; i < 255; i++ {
		now += 20
		press(c, now)
		now += 20
		release(c, now)
	}

	last := (*events)[len(*events)-1]
	if !last.press || last.count != 0 {
		t.Errorf("expected 256th press to wrap count to 0, got %+v", last)
	}
	if (*events)[253].count != 255 {
		t.Errorf("expected count 255 on the 255th press, got %+v", (*events)[253])
	}
}

func TestClockWraparound(t *testing.T) {
	c, events := newRecorded()

	start := uint32(0xFFFFFF00)
	press(c, start)
	release(c, start+50)
	// 0x100 ms after start the clock has wrapped to 0.
	idle(c, 0)
	if len(*events) != 0 {
		t.Fatalf("expected no event 256 ms after press, got %v", *events)
	}
	idle(c, 100) // 356 ms after the press
	if len(*events) != 1 {
		t.Fatalf("expected sequence release after wrap, got %v", *events)
	}
}

func TestNilHandlers(t *testing.T) {
	c := New(nil)
	press(c, 0)
	hold(c, 1500)
	release(c, 1600)
	if c.State() != StateScanning {
		t.Errorf("expected Scanning, got %s", c.State())
	}
}

// scriptSource replays a fixed series of samples.
type scriptSource struct {
	samples []Input
	i       int
}

func (s *scriptSource) Update(now uint32) (bool, bool) {
	if s.i >= len(s.samples) {
		return false, false
	}
	in := s.samples[s.i]
	s.i++
	return in.Pressed, in.Changed
}

func TestPollReadsSource(t *testing.T) {
	src := &scriptSource{samples: []Input{
		{Pressed: true, Changed: true},
		{Pressed: false, Changed: true},
		{Pressed: false},
	}}
	c := New(src)
	var got []event
	c.OnRelease(func(origin State, count uint8) {
		got = append(got, event{origin: origin, count: count})
	})

	c.Poll(0)
	c.Poll(50)
	c.Poll(400)

	if len(got) != 1 || got[0].count != 1 || got[0].origin != StateShortSequence {
		t.Errorf("unexpected events: %+v", got)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateScanning:      "SCANNING",
		StateShortSequence: "SHORT_SEQUENCE",
		StateLongPress:     "LONG_PRESS",
		State(9):           "UNKNOWN",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String(): got %q, want %q", s, s.String(), want)
		}
	}
}
