package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/internal/store"
)

// envelope is the uniform response shape of the JSON API.
type envelope struct {
	Data    any    `json:"data,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type controlRequest struct {
	Device   string `json:"device"`
	Action   string `json:"action,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type scheduleRequest struct {
	Device   string `json:"device"`
	Time     string `json:"time"`
	Action   string `json:"action,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type statusJSON struct {
	CapturedAt   string   `json:"captured_at"`
	Advice       []string `json:"advice"`
	SoilMoisture float64  `json:"soil_moisture"`
	LightLevel   float64  `json:"light_level"`
	Temperature  float64  `json:"temperature"`
	Humidity     float64  `json:"humidity"`
}

type scheduleJSON struct {
	Device   string `json:"device"`
	Time     string `json:"time"`
	Action   string `json:"action,omitempty"`
	Duration int    `json:"duration,omitempty"`
	ID       uint   `json:"id"`
}

type logJSON struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	ID        uint   `json:"id"`
}

type readingJSON struct {
	Timestamp    string  `json:"timestamp"`
	SoilMoisture float64 `json:"soil_moisture"`
	LightLevel   float64 `json:"light_level"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	ID           uint    `json:"id"`
}

func statusPayload(snapshot *status.Snapshot, advice []string) statusJSON {
	if advice == nil {
		advice = []string{}
	}
	return statusJSON{
		CapturedAt:   snapshot.CapturedAt.UTC().Format(time.RFC3339),
		Advice:       advice,
		SoilMoisture: snapshot.SoilMoisture,
		LightLevel:   snapshot.LightLevel,
		Temperature:  snapshot.Temperature,
		Humidity:     snapshot.Humidity,
	}
}

func schedulesPayload(entries []store.ScheduleEntry) []scheduleJSON {
	out := make([]scheduleJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, scheduleJSON{
			ID:       entry.ID,
			Device:   string(entry.Device),
			Time:     entry.TimeOfDay,
			Action:   entry.Action,
			Duration: entry.Duration,
		})
	}
	return out
}

func logsPayload(entries []store.ActionLogEntry) []logJSON {
	out := make([]logJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, logJSON{
			ID:        entry.ID,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
			Action:    entry.Action,
		})
	}
	return out
}

func readingsPayload(readings []store.SensorReading) []readingJSON {
	out := make([]readingJSON, 0, len(readings))
	for _, reading := range readings {
		out = append(out, readingJSON{
			ID:           reading.ID,
			Timestamp:    reading.Timestamp.UTC().Format(time.RFC3339),
			SoilMoisture: reading.SoilMoisture,
			LightLevel:   reading.LightLevel,
			Temperature:  reading.Temperature,
			Humidity:     reading.Humidity,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: data})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: "error", Message: message})
}
