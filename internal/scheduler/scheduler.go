// Package scheduler implements the daily recurring task dispatch loop: an
// in-memory armed-timer table synchronized write-through with the persistent
// store, advanced by a cooperative polling loop.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ohrachov/plantmon/internal/errdefs"
	"github.com/ohrachov/plantmon/internal/store"
	"github.com/ohrachov/plantmon/pkg/metrics"
)

// DefaultPollInterval is how often the polling loop checks armed timers.
const DefaultPollInterval = time.Second

// DeviceController dispatches fired timers. Satisfied by
// *devices.Controller.
type DeviceController interface {
	Water(ctx context.Context, durationMinutes int) error
	ControlLight(ctx context.Context, action string) error
}

// Scheduler owns the armed-timer table. Registration, cancellation, and the
// polling loop all serialize on one mutex, so registering while the loop
// iterates never corrupts the table, and CancelAll is effective before it
// returns.
type Scheduler struct {
	logger     *slog.Logger
	store      *store.Store
	controller DeviceController
	metrics    *metrics.SchedulerMetrics // Optional metrics
	interval   time.Duration
	now        func() time.Time

	mu     sync.Mutex
	timers map[uint]*armedTimer

	wg sync.WaitGroup // in-flight dispatches
}

// Config holds the configuration for the Scheduler.
type Config struct {
	Logger     *slog.Logger
	Store      *store.Store
	Controller DeviceController
	Metrics    *metrics.SchedulerMetrics
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Now defaults to time.Now. Overridable for tests.
	Now func() time.Time
}

// New creates a new Scheduler instance with an empty timer table.
func New(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("scheduler config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}

	if cfg.Controller == nil {
		return nil, errors.New("controller cannot be nil")
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		logger:     cfg.Logger,
		store:      cfg.Store,
		controller: cfg.Controller,
		metrics:    cfg.Metrics,
		interval:   interval,
		now:        now,
		timers:     make(map[uint]*armedTimer),
	}, nil
}

// Schedule validates, persists, and arms a new daily task. For lighting the
// duration is zeroed and action must be "on" or "off"; for watering the
// action is ignored. The store row is written before the timer is armed, so
// a row exists for every live timer.
func (s *Scheduler) Schedule(ctx context.Context, device store.Device, timeOfDay string, durationMinutes int, action string) (uint, error) {
	if !device.Valid() {
		return 0, errdefs.Validationf("unknown device %q", device)
	}

	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return 0, err
	}

	switch device {
	case store.DeviceWatering:
		if durationMinutes < 0 {
			return 0, errdefs.Validationf("watering duration cannot be negative: %d", durationMinutes)
		}
		action = ""
	case store.DeviceLighting:
		if action != "on" && action != "off" {
			return 0, errdefs.Validationf("invalid action for lights: %q (use \"on\" or \"off\")", action)
		}
		durationMinutes = 0
	}

	id, err := s.store.AddSchedule(ctx, device, timeOfDay, durationMinutes, action)
	if err != nil {
		return 0, err
	}

	entry := store.ScheduleEntry{
		ID:        id,
		Device:    device,
		TimeOfDay: timeOfDay,
		Duration:  durationMinutes,
		Action:    action,
	}

	s.mu.Lock()
	s.timers[id] = &armedTimer{
		entry:    entry,
		hour:     hour,
		minute:   minute,
		nextFire: nextOccurrence(s.now(), hour, minute),
	}
	count := len(s.timers)
	s.mu.Unlock()

	s.updateArmedGauge(count)
	s.logger.Info("schedule armed",
		"id", id,
		"device", device,
		"time_of_day", timeOfDay,
		"duration_minutes", durationMinutes,
	)

	return id, nil
}

// Reload replaces the armed-timer table with the schedule rows currently in
// the store. Called once at startup so persisted schedules survive a
// restart.
func (s *Scheduler) Reload(ctx context.Context) error {
	entries, err := s.store.Schedules(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	timers := make(map[uint]*armedTimer, len(entries))
	for _, entry := range entries {
		hour, minute, perr := parseTimeOfDay(entry.TimeOfDay)
		if perr != nil {
			s.logger.Warn("skipping schedule with unparseable time",
				"id", entry.ID,
				"time_of_day", entry.TimeOfDay,
			)
			continue
		}
		timers[entry.ID] = &armedTimer{
			entry:    entry,
			hour:     hour,
			minute:   minute,
			nextFire: nextOccurrence(now, hour, minute),
		}
	}

	s.mu.Lock()
	s.timers = timers
	count := len(s.timers)
	s.mu.Unlock()

	s.updateArmedGauge(count)
	s.logger.Info("schedules reloaded", "armed", count)
	return nil
}

// Cancel disarms and deletes one schedule. Cancelling an unknown id is a
// no-op.
func (s *Scheduler) Cancel(ctx context.Context, id uint) error {
	s.mu.Lock()
	delete(s.timers, id)
	count := len(s.timers)
	// Keep the lock across the store delete so the row and the timer
	// disappear together.
	err := s.store.DeleteSchedule(ctx, id)
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.updateArmedGauge(count)
	if s.metrics != nil {
		s.metrics.CancellationsTotal.WithLabelValues("single").Inc()
	}
	s.logger.Info("schedule cancelled", "id", id)
	return nil
}

// CancelAll disarms every timer and deletes every schedule row, then appends
// a single action log entry. No timer fires after CancelAll returns; actions
// already dispatched run to completion.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	s.timers = make(map[uint]*armedTimer)
	err := s.store.DeleteAllSchedules(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.updateArmedGauge(0)
	if s.metrics != nil {
		s.metrics.CancellationsTotal.WithLabelValues("all").Inc()
	}

	if err := s.store.AppendLog(ctx, "All schedules canceled."); err != nil {
		return err
	}

	s.logger.Info("all schedules cancelled")
	return nil
}

// ArmedCount returns the number of currently armed timers.
func (s *Scheduler) ArmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Armed returns a snapshot of the armed schedule entries, sorted by nothing
// in particular.
func (s *Scheduler) Armed() []store.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]store.ScheduleEntry, 0, len(s.timers))
	for _, timer := range s.timers {
		entries = append(entries, timer.entry)
	}
	return entries
}

// RunPending dispatches every armed timer whose fire time has arrived and
// re-arms it for its next wall-clock occurrence. Each dispatch runs on its
// own goroutine so a watering in flight never delays other firings.
func (s *Scheduler) RunPending(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []store.ScheduleEntry
	for _, timer := range s.timers {
		if !timer.nextFire.After(now) {
			due = append(due, timer.entry)
			timer.nextFire = nextOccurrence(now, timer.hour, timer.minute)
		}
	}
	s.mu.Unlock()

	for _, entry := range due {
		s.wg.Add(1)
		go func(entry store.ScheduleEntry) {
			defer s.wg.Done()
			s.dispatch(ctx, entry)
		}(entry)
	}
}

// Run polls armed timers once per interval until ctx is cancelled, then
// waits for in-flight dispatches to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "poll_interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.RunPending(ctx)
		}
	}
}

// dispatch invokes the device controller for one fired timer. A failed
// firing is logged and the timer stays armed for the next day.
func (s *Scheduler) dispatch(ctx context.Context, entry store.ScheduleEntry) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.FiringDuration.WithLabelValues(string(entry.Device)))
		defer timer.ObserveDuration()
	}

	s.logger.Info("timer fired",
		"id", entry.ID,
		"device", entry.Device,
		"time_of_day", entry.TimeOfDay,
	)

	var err error
	switch entry.Device {
	case store.DeviceWatering:
		err = s.controller.Water(ctx, entry.Duration)
	case store.DeviceLighting:
		err = s.controller.ControlLight(ctx, entry.Action)
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.FiringsTotal.WithLabelValues(string(entry.Device), "error").Inc()
		}
		s.logger.Error("firing failed, timer stays armed",
			"id", entry.ID,
			"device", entry.Device,
			"error", err,
		)
		return
	}

	if s.metrics != nil {
		s.metrics.FiringsTotal.WithLabelValues(string(entry.Device), "success").Inc()
	}
}

func (s *Scheduler) updateArmedGauge(count int) {
	if s.metrics != nil {
		s.metrics.ArmedTimers.Set(float64(count))
	}
}
