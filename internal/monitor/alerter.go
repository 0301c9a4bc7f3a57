package monitor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ohrachov/plantmon/internal/notify"
	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

// StatusProvider exposes the latest sensor snapshot.
type StatusProvider interface {
	Latest() *status.Snapshot
}

// Publisher delivers alert events to notification channels.
type Publisher interface {
	Send(ctx context.Context, event notify.Event)
}

// Alerter periodically checks the latest snapshot against the healthy bands
// and sends one alert per out-of-band reading. Identical consecutive advice
// is sent only once; an alert repeats after the readings recover and drift
// out of band again.
type Alerter struct {
	logger     *slog.Logger
	provider   StatusProvider
	publisher  Publisher
	thresholds sensors.Thresholds
	interval   time.Duration
	now        func() time.Time

	lastAdvice string
}

// AlerterConfig holds the configuration for the Alerter.
type AlerterConfig struct {
	Logger     *slog.Logger
	Provider   StatusProvider
	Publisher  Publisher
	Thresholds sensors.Thresholds
	// Interval defaults to the status refresh interval.
	Interval time.Duration
	// Now defaults to time.Now. Overridable for tests.
	Now func() time.Time
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *AlerterConfig) *Alerter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = status.DefaultRefreshInterval
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Alerter{
		logger:     cfg.Logger,
		provider:   cfg.Provider,
		publisher:  cfg.Publisher,
		thresholds: cfg.Thresholds,
		interval:   interval,
		now:        now,
	}
}

// Check evaluates the latest snapshot once and sends any new alerts.
func (a *Alerter) Check(ctx context.Context) {
	snapshot := a.provider.Latest()
	if snapshot == nil {
		return
	}

	advice := a.thresholds.Advice(snapshot.Readings())
	joined := strings.Join(advice, "\n")
	if joined == a.lastAdvice {
		return
	}
	a.lastAdvice = joined

	for _, tip := range advice {
		a.logger.Warn("plant needs attention", "advice", tip)
		a.publisher.Send(ctx, notify.Event{
			Timestamp: a.now().UTC(),
			Kind:      "alert",
			Message:   tip,
		})
	}
}

// Run checks on every tick until ctx is canceled.
func (a *Alerter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Check(ctx)
		}
	}
}
