package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/fairy-lamp/internal/lamp"
	"github.com/sweeney/fairy-lamp/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"gateway": func(level uint8) int {
		return lamp.ToGateway(level)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Fairy Lamp</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
</style>
</head>
<body>
<h1>Fairy Lamp: {{.Config.Node}}<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<h2>Lamp</h2>
<table>
<tr><th>Power</th><td id="power" class="{{if .Lamp.Power}}on{{else}}off{{end}}">{{if .Lamp.Power}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Level</th><td id="level">{{.Lamp.Level}}</td></tr>
<tr><th>Brightness</th><td id="brightness">{{gateway .Lamp.Level}}%</td></tr>
<tr><th>Duty</th><td id="duty">{{.Duty}}</td></tr>
<tr><th>Animating</th><td id="animating">{{if .AnimationIdle}}no{{else}}yes{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Buffered</th><td>{{.MQTTBuffered}} ({{.MQTTDropped}} dropped)</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Toggles</th><td>{{.Counts.Toggles}}</td></tr>
<tr><th>Steps up</th><td>{{.Counts.StepsUp}}</td></tr>
<tr><th>Steps down</th><td>{{.Counts.StepsDown}}</td></tr>
<tr><th>Boundary hits</th><td>{{.Counts.BoundaryHits}}</td></tr>
<tr><th>Gateway commands</th><td>{{.Counts.GatewayEvents}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>PWM</th><td>{{.Config.PWMBackend}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function set(id, text) { document.getElementById(id).textContent = text; }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { dot.className = "live-dot ok"; dot.title = "live"; };
    ws.onclose = function() {
      dot.className = "live-dot err"; dot.title = "offline";
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        var p = document.getElementById("power");
        p.textContent = s.power;
        p.className = s.power === "ON" ? "on" : "off";
        set("level", s.level);
        set("brightness", s.brightness + "%");
        set("duty", s.duty);
        set("animating", s.idle.animation ? "no" : "yes");
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
