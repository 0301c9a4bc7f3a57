// Package status polls the sensor provider on a fixed period and publishes
// the latest complete snapshot for the web dashboard and the bot.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ohrachov/plantmon/internal/errdefs"
	"github.com/ohrachov/plantmon/internal/store"
	"github.com/ohrachov/plantmon/pkg/metrics"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

// DefaultRefreshInterval is how often the background loop refreshes.
const DefaultRefreshInterval = 60 * time.Second

// Snapshot is one complete set of sensor readings. Snapshots are immutable
// once published; readers never observe a half-written one.
type Snapshot struct {
	CapturedAt   time.Time
	SoilMoisture float64
	LightLevel   float64
	Temperature  float64
	Humidity     float64
}

// Readings returns the snapshot as a map keyed by sensor name.
func (s *Snapshot) Readings() map[string]float64 {
	return map[string]float64{
		sensors.KeySoilMoisture: s.SoilMoisture,
		sensors.KeyLightLevel:   s.LightLevel,
		sensors.KeyTemperature:  s.Temperature,
		sensors.KeyHumidity:     s.Humidity,
	}
}

// History receives successful snapshots for durable retention. Satisfied by
// *store.Store.
type History interface {
	AddReading(ctx context.Context, reading *store.SensorReading) error
}

// Aggregator caches the most recent complete snapshot. Publication is a
// single pointer swap, so any number of concurrent readers is fine.
type Aggregator struct {
	logger   *slog.Logger
	provider sensors.Provider
	history  History                // Optional durable history
	metrics  *metrics.StatusMetrics // Optional metrics
	interval time.Duration
	now      func() time.Time

	snapshot atomic.Pointer[Snapshot]
}

// Config holds the configuration for the Aggregator.
type Config struct {
	Logger   *slog.Logger
	Provider sensors.Provider
	History  History
	Metrics  *metrics.StatusMetrics
	// RefreshInterval defaults to DefaultRefreshInterval.
	RefreshInterval time.Duration
	// Now defaults to time.Now. Overridable for tests.
	Now func() time.Time
}

// New creates a new Aggregator instance with no published snapshot.
func New(cfg *Config) (*Aggregator, error) {
	if cfg == nil {
		return nil, errors.New("aggregator config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Provider == nil {
		return nil, errors.New("sensor provider cannot be nil")
	}

	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Aggregator{
		logger:   cfg.Logger,
		provider: cfg.Provider,
		history:  cfg.History,
		metrics:  cfg.Metrics,
		interval: interval,
		now:      now,
	}, nil
}

// Latest returns the most recently published snapshot, or nil if no refresh
// has succeeded yet.
func (a *Aggregator) Latest() *Snapshot {
	return a.snapshot.Load()
}

// Refresh reads the sensor provider once. A failed or partial read discards
// the whole result and keeps the previous snapshot.
func (a *Aggregator) Refresh(ctx context.Context) error {
	var timer *prometheus.Timer
	if a.metrics != nil {
		timer = prometheus.NewTimer(a.metrics.RefreshDuration)
		defer timer.ObserveDuration()
	}

	readings, err := a.provider.Read(ctx)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RefreshesTotal.WithLabelValues("error").Inc()
		}
		return errdefs.Provider("sensor", err)
	}

	for _, key := range sensors.Keys {
		if _, ok := readings[key]; !ok {
			if a.metrics != nil {
				a.metrics.RefreshesTotal.WithLabelValues("partial").Inc()
			}
			return errdefs.Provider("sensor", fmt.Errorf("partial reading: missing %s", key))
		}
	}

	snapshot := &Snapshot{
		CapturedAt:   a.now(),
		SoilMoisture: readings[sensors.KeySoilMoisture],
		LightLevel:   readings[sensors.KeyLightLevel],
		Temperature:  readings[sensors.KeyTemperature],
		Humidity:     readings[sensors.KeyHumidity],
	}

	if prev := a.snapshot.Load(); prev != nil && a.metrics != nil {
		a.metrics.SnapshotAge.Set(snapshot.CapturedAt.Sub(prev.CapturedAt).Seconds())
	}
	a.snapshot.Store(snapshot)

	if a.metrics != nil {
		a.metrics.RefreshesTotal.WithLabelValues("success").Inc()
		for key, value := range readings {
			a.metrics.SensorValue.WithLabelValues(key).Set(value)
		}
	}

	// History is best effort; the snapshot is already published.
	if a.history != nil {
		reading := &store.SensorReading{
			SoilMoisture: snapshot.SoilMoisture,
			LightLevel:   snapshot.LightLevel,
			Temperature:  snapshot.Temperature,
			Humidity:     snapshot.Humidity,
		}
		if err := a.history.AddReading(ctx, reading); err != nil {
			a.logger.Error("failed to persist reading history", "error", err)
		}
	}

	a.logger.Debug("snapshot published",
		"soil_moisture", snapshot.SoilMoisture,
		"light_level", snapshot.LightLevel,
		"temperature", snapshot.Temperature,
		"humidity", snapshot.Humidity,
	)

	return nil
}

// Run refreshes immediately and then once per interval until ctx is
// cancelled. A failed refresh is logged and retried at the next cycle.
func (a *Aggregator) Run(ctx context.Context) error {
	a.logger.Info("status aggregator started", "refresh_interval", a.interval)

	if err := a.Refresh(ctx); err != nil {
		a.logger.Error("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("status aggregator stopping")
			return nil
		case <-ticker.C:
			if err := a.Refresh(ctx); err != nil {
				a.logger.Error("refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}
