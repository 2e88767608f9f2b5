package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sweeney/fairy-lamp/internal/lamp"
	"github.com/sweeney/fairy-lamp/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Node:        "lantern",
		PollMs:      10,
		DebounceMs:  25,
		HeartbeatMs: 1800000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		PWMBackend:  "periph",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, srv, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(lamp.State{Power: true, Level: 15}, 255, true, true, lamp.Counts{Toggles: 3, StepsUp: 2, BoundaryHits: 1})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Power != "ON" {
		t.Errorf("Power: got %q, want ON", sj.Status.Power)
	}
	if sj.Status.Level != 15 {
		t.Errorf("Level: got %d, want 15", sj.Status.Level)
	}
	if sj.Status.Brightness != 100 {
		t.Errorf("Brightness: got %d, want 100", sj.Status.Brightness)
	}
	if sj.Status.Duty != 255 {
		t.Errorf("Duty: got %d, want 255", sj.Status.Duty)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.Toggles != 3 || sj.Status.Counts.StepsUp != 2 || sj.Status.Counts.BoundaryHits != 1 {
		t.Errorf("Counts: got %+v", sj.Status.Counts)
	}
	if sj.Status.Config.Node != "lantern" {
		t.Errorf("Config.Node: got %q, want lantern", sj.Status.Config.Node)
	}
	if sj.Status.Config.PWMBackend != "periph" {
		t.Errorf("Config.PWMBackend: got %q, want periph", sj.Status.Config.PWMBackend)
	}
	if sj.Status.Event != "" || sj.Status.Reason != "" {
		t.Error("web JSON must not carry event or reason")
	}
}

func TestJSONDefaultsBeforeFirstUpdate(t *testing.T) {
	ts, _, _ := newTestServer(t)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Power != "OFF" {
		t.Errorf("Power: got %q, want OFF", sj.Status.Power)
	}
	if !sj.Status.Idle.Animation || !sj.Status.Idle.Click {
		t.Errorf("expected idle before first update, got %+v", sj.Status.Idle)
	}
	if sj.Status.MQTT.Connected {
		t.Error("expected MQTT disconnected before first update")
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(lamp.State{Power: true, Level: 5}, 91, false, true, lamp.Counts{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	for _, want := range []string{"Fairy Lamp: lantern", ">ON<", ">29%<", ">91<", "/ws"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), ">OFF<") {
		t.Error("expected lamp OFF in page")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/index.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST /index.json: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, _, tr := newTestServer(t)

	tr.Update(lamp.State{Power: false, Level: 5}, 0, true, true, lamp.Counts{})
	if sj := getJSON(t, ts.URL+"/index.json"); sj.Status.Power != "OFF" {
		t.Errorf("Power: got %q, want OFF", sj.Status.Power)
	}

	tr.Update(lamp.State{Power: true, Level: 6}, 107, true, true, lamp.Counts{Toggles: 1})
	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Power != "ON" || sj.Status.Level != 6 {
		t.Errorf("got power %q level %d, want ON 6", sj.Status.Power, sj.Status.Level)
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) status.StatusJSON {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var sj status.StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return sj
}

func TestWebSocketPushesSnapshots(t *testing.T) {
	ts, srv, tr := newTestServer(t)
	srv.pushInterval = 20 * time.Millisecond
	tr.Update(lamp.State{Power: true, Level: 5}, 91, true, true, lamp.Counts{})

	conn := dialWS(t, ts)
	if sj := readStatus(t, conn); sj.Status.Level != 5 {
		t.Errorf("initial level: got %d, want 5", sj.Status.Level)
	}

	tr.Update(lamp.State{Power: true, Level: 9}, 155, true, true, lamp.Counts{StepsUp: 4})

	// A push already in flight may still carry the old state.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sj := readStatus(t, conn); sj.Status.Level == 9 {
			return
		}
	}
	t.Error("did not receive updated level over websocket")
}

func TestWebSocketClosedOnShutdown(t *testing.T) {
	ts, srv, _ := newTestServer(t)
	conn := dialWS(t, ts)
	readStatus(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}
