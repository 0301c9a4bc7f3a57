// Package web provides the HTTP dashboard and JSON API for the plant
// monitoring service.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ohrachov/plantmon/internal/analysis"
	"github.com/ohrachov/plantmon/internal/errdefs"
	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/internal/store"
	"github.com/ohrachov/plantmon/pkg/metrics"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

// StatusProvider exposes the latest sensor snapshot.
type StatusProvider interface {
	Latest() *status.Snapshot
}

// Scheduler manages timed device actions.
type Scheduler interface {
	Schedule(ctx context.Context, device store.Device, timeOfDay string, durationMinutes int, action string) (uint, error)
	Cancel(ctx context.Context, id uint) error
	CancelAll(ctx context.Context) error
	Armed() []store.ScheduleEntry
}

// Controller runs device actions immediately.
type Controller interface {
	Water(ctx context.Context, durationMinutes int) error
	ControlLight(ctx context.Context, action string) error
}

// Analyzer runs the plant health check flow.
type Analyzer interface {
	Analyze(ctx context.Context) (*analysis.Result, error)
}

// LogReader reads recent action log entries.
type LogReader interface {
	RecentLogs(ctx context.Context, limit int) ([]store.ActionLogEntry, error)
}

// ReadingReader reads the persisted sensor reading history.
type ReadingReader interface {
	RecentReadings(ctx context.Context, limit int) ([]store.SensorReading, error)
}

// Server serves the dashboard and JSON API.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	provider   StatusProvider
	scheduler  Scheduler
	controller Controller
	analyzer   Analyzer
	logs       LogReader
	readings   ReadingReader
	thresholds sensors.Thresholds
	metrics    *metrics.WebMetrics // Optional metrics
}

// Config holds the configuration for the Server.
type Config struct {
	Logger     *slog.Logger
	Provider   StatusProvider
	Scheduler  Scheduler
	Controller Controller
	Analyzer   Analyzer
	Logs       LogReader
	Readings   ReadingReader
	// Metrics is optional.
	Metrics    *metrics.WebMetrics
	Addr       string
	Thresholds sensors.Thresholds
}

// New creates a new Server instance.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("web config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Addr == "" {
		return nil, errors.New("listen address cannot be empty")
	}

	if cfg.Provider == nil {
		return nil, errors.New("status provider cannot be nil")
	}

	if cfg.Scheduler == nil {
		return nil, errors.New("scheduler cannot be nil")
	}

	if cfg.Controller == nil {
		return nil, errors.New("controller cannot be nil")
	}

	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer cannot be nil")
	}

	if cfg.Logs == nil {
		return nil, errors.New("log reader cannot be nil")
	}

	if cfg.Readings == nil {
		return nil, errors.New("reading reader cannot be nil")
	}

	s := &Server{
		logger:     cfg.Logger,
		provider:   cfg.Provider,
		scheduler:  cfg.Scheduler,
		controller: cfg.Controller,
		analyzer:   cfg.Analyzer,
		logs:       cfg.Logs,
		readings:   cfg.Readings,
		thresholds: cfg.Thresholds,
		metrics:    cfg.Metrics,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/control", s.handleControl)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/readings", s.handleReadings)
	mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
	mux.HandleFunc("POST /api/schedules", s.handleAddSchedule)
	mux.HandleFunc("DELETE /api/schedules", s.handleCancelAllSchedules)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.handleCancelSchedule)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return s.instrument(mux)
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("web server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// instrument wraps the mux with request metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.HTTPRequestDuration.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
		s.metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.provider.Latest()

	var advice []string
	if snapshot != nil {
		advice = s.thresholds.Advice(snapshot.Readings())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderIndex(w, snapshot, advice, s.scheduler.Armed())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := s.provider.Latest()
	if snapshot == nil {
		writeError(w, http.StatusServiceUnavailable, "no sensor data available yet")
		return
	}

	writeSuccess(w, statusPayload(snapshot, s.thresholds.Advice(snapshot.Readings())))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	result, err := s.analyzer.Analyze(r.Context())
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "plant analysis failed")
		return
	}

	writeSuccess(w, result)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch store.Device(req.Device) {
	case store.DeviceWatering:
		if req.Duration <= 0 {
			writeError(w, http.StatusBadRequest, "duration must be positive")
			return
		}
		if err := s.controller.Water(r.Context(), req.Duration); err != nil {
			s.writeActionError(w, "watering failed", err)
			return
		}
		writeSuccess(w, map[string]any{"device": req.Device, "duration": req.Duration})
	case store.DeviceLighting:
		if err := s.controller.ControlLight(r.Context(), req.Action); err != nil {
			s.writeActionError(w, "light control failed", err)
			return
		}
		writeSuccess(w, map[string]any{"device": req.Device, "action": req.Action})
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown device %q", req.Device))
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = parsed
	}

	entries, err := s.logs.RecentLogs(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read action log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read the action log")
		return
	}

	writeSuccess(w, logsPayload(entries))
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = parsed
	}

	readings, err := s.readings.RecentReadings(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read sensor history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read the sensor history")
		return
	}

	writeSuccess(w, readingsPayload(readings))
}

func (s *Server) handleListSchedules(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, schedulesPayload(s.scheduler.Armed()))
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.scheduler.Schedule(r.Context(), store.Device(req.Device), req.Time, req.Duration, req.Action)
	if err != nil {
		if errdefs.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to add schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add the schedule")
		return
	}

	writeCreated(w, map[string]any{"id": id})
}

func (s *Server) handleCancelSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "schedule id must be a number")
		return
	}

	if err := s.scheduler.Cancel(r.Context(), uint(id)); err != nil {
		s.logger.Error("failed to cancel schedule", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel the schedule")
		return
	}

	writeSuccess(w, map[string]any{"id": id})
}

func (s *Server) handleCancelAllSchedules(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.CancelAll(r.Context()); err != nil {
		s.logger.Error("failed to cancel schedules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel schedules")
		return
	}

	writeSuccess(w, map[string]any{"canceled": "all"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) writeActionError(w http.ResponseWriter, msg string, err error) {
	if errdefs.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}
