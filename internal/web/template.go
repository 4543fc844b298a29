package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/donation-box/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Donation Box</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.current { font-weight: bold; color: green; }
.connected { color: green; }
.disconnected { color: red; }
button { font-family: monospace; }
</style>
</head>
<body>
<h1>Donation Box</h1>

<h2>Mode</h2>
<table>
<tr><th>Current</th><td id="mode" class="current">{{.Mode}}</td></tr>
{{if .State}}<tr><th>State</th><td>{{.State}}</td></tr>{{end}}
<tr><th>Sensor</th><td>{{if .SensorActive}}blocked{{else}}clear{{end}}</td></tr>
{{if not .LastDonation.IsZero}}<tr><th>Last donation</th><td>{{.LastDonation.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
</table>

<h2>Rotation</h2>
<table>
<tr><th>#</th><th>Name</th><th>Effect</th>{{if .Controls}}<th></th>{{end}}</tr>
{{range $i, $m := .Modes}}<tr{{if eq $i $.Index}} class="current"{{end}}><td>{{$i}}</td><td title="{{$m.Description}}">{{$m.Name}} <small>{{$m.Version}}</small></td><td>{{$m.EffectMs}}ms</td>{{if $.Controls}}<td><form method="post" action="/api/mode/{{$i}}"><button>switch</button></form></td>{{end}}</tr>
{{end}}</table>
{{if .Controls}}<form method="post" action="/api/mode/next"><button>next mode</button></form>{{end}}

<h2>Event Counts</h2>
<table>
<tr><th>Donations</th><td>{{.Counts.Donations}}</td></tr>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Audio</th><td>{{.Audio}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Cooldown</th><td>{{.Config.CooldownMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>LEDs</th><td>{{.Config.LEDCount}} ({{.Config.LEDDriver}})</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/api/history">History</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, controls bool) error {
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Controls bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Controls: controls,
	}
	return indexTmpl.Execute(w, data)
}
