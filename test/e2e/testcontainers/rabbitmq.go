// Package testcontainers provides helper functions for managing test
// containers across e2e tests.
package testcontainers

import (
	"context"
	"fmt"

	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// StartRabbitMQ starts a RabbitMQ container for testing and returns the
// container and its AMQP connection URL.
func StartRabbitMQ(ctx context.Context) (*tcrabbitmq.RabbitMQContainer, string, error) {
	container, err := tcrabbitmq.Run(ctx, "rabbitmq:3-management-alpine",
		tcrabbitmq.WithAdminUsername("guest"),
		tcrabbitmq.WithAdminPassword("guest"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start RabbitMQ container: %w", err)
	}

	url, err := container.AmqpURL(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get AMQP URL: %w", err)
	}

	return container, url, nil
}
