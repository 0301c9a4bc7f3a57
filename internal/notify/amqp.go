package notify

import (
	"context"
	"encoding/json"

	"github.com/ohrachov/plantmon/internal/errdefs"
)

// Publisher is the part of the queue client the AMQP channel needs.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// AMQPChannel publishes events as JSON to a message queue so external
// consumers can react to alerts and actions.
type AMQPChannel struct {
	publisher Publisher
}

// NewAMQPChannel creates an AMQPChannel over the given publisher.
func NewAMQPChannel(publisher Publisher) *AMQPChannel {
	return &AMQPChannel{publisher: publisher}
}

// Name implements Channel.
func (c *AMQPChannel) Name() string { return "amqp" }

// Send implements Channel.
func (c *AMQPChannel) Send(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errdefs.Provider("amqp", err)
	}

	if err := c.publisher.Publish(ctx, data); err != nil {
		return errdefs.Provider("amqp", err)
	}
	return nil
}
