package web

import (
	"html/template"
	"io"

	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/internal/store"
)

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Plant Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.advice { color: orange; }
.empty { color: #888; }
</style>
</head>
<body>
<h1>Plant Monitor</h1>

<h2>Sensors</h2>
{{if .Snapshot}}
<table>
<tr><th>Soil Moisture</th><td>{{printf "%.1f" .Snapshot.SoilMoisture}}%</td></tr>
<tr><th>Light Level</th><td>{{printf "%.1f" .Snapshot.LightLevel}} lux</td></tr>
<tr><th>Temperature</th><td>{{printf "%.1f" .Snapshot.Temperature}}°C</td></tr>
<tr><th>Humidity</th><td>{{printf "%.1f" .Snapshot.Humidity}}%</td></tr>
<tr><th>Captured</th><td>{{.Snapshot.CapturedAt.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
</table>
{{range .Advice}}<p class="advice">{{.}}</p>
{{end}}
{{else}}
<p class="empty">No sensor data available yet.</p>
{{end}}

<h2>Schedules</h2>
{{if .Schedules}}
<table>
<tr><th>ID</th><td>Device</td><td>Time</td><td>Detail</td></tr>
{{range .Schedules}}<tr><th>{{.ID}}</th><td>{{.Device}}</td><td>{{.TimeOfDay}}</td><td>{{if eq .Device "watering"}}{{.Duration}} min{{else}}{{.Action}}{{end}}</td></tr>
{{end}}
</table>
{{else}}
<p class="empty">No schedules configured.</p>
{{end}}

<p><a href="/api/status">JSON</a> | <a href="/api/logs">Logs</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderIndex(w io.Writer, snapshot *status.Snapshot, advice []string, schedules []store.ScheduleEntry) {
	data := struct {
		Snapshot  *status.Snapshot
		Advice    []string
		Schedules []store.ScheduleEntry
	}{
		Snapshot:  snapshot,
		Advice:    advice,
		Schedules: schedules,
	}
	indexTmpl.Execute(w, data)
}
