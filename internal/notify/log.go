package notify

import (
	"context"
	"log/slog"
)

// LogChannel writes events to the structured log. It is always configured
// and serves as the fallback destination.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates a LogChannel.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Name implements Channel.
func (c *LogChannel) Name() string { return "log" }

// Send implements Channel.
func (c *LogChannel) Send(_ context.Context, event Event) error {
	c.logger.Info("plant notification",
		"kind", event.Kind,
		"message", event.Message,
		"timestamp", event.Timestamp)
	return nil
}
