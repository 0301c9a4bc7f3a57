// Package notify delivers plant alerts and action events to the configured
// notification channels.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/ohrachov/plantmon/pkg/metrics"
)

// Event is one notification: a threshold alert, an action confirmation, or
// an analysis result.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	// Kind is "alert", "action" or "analysis".
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Channel delivers events to one destination.
type Channel interface {
	// Name identifies the channel in logs and metrics.
	Name() string
	// Send delivers the event. Implementations must respect ctx.
	Send(ctx context.Context, event Event) error
}

// Notifier fans an event out to all channels. Delivery failures are logged
// per channel and do not stop delivery to the others.
type Notifier struct {
	logger   *slog.Logger
	channels []Channel
	metrics  *metrics.NotifyMetrics // Optional metrics
}

// NewNotifier creates a Notifier over the given channels. An empty channel
// list is allowed; Send then does nothing.
func NewNotifier(logger *slog.Logger, m *metrics.NotifyMetrics, channels ...Channel) *Notifier {
	return &Notifier{
		logger:   logger,
		channels: channels,
		metrics:  m,
	}
}

// Send delivers the event to every channel.
func (n *Notifier) Send(ctx context.Context, event Event) {
	for _, ch := range n.channels {
		start := time.Now()
		err := ch.Send(ctx, event)

		if n.metrics != nil {
			n.metrics.SendDuration.WithLabelValues(ch.Name()).Observe(time.Since(start).Seconds())
		}

		if err != nil {
			if n.metrics != nil {
				n.metrics.SendsTotal.WithLabelValues(ch.Name(), "error").Inc()
			}
			n.logger.Error("notification delivery failed",
				"channel", ch.Name(),
				"kind", event.Kind,
				"error", err)
			continue
		}

		if n.metrics != nil {
			n.metrics.SendsTotal.WithLabelValues(ch.Name(), "success").Inc()
		}
	}
}
