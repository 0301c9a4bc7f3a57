// Package devices provides the watering and lighting controller abstractions
// invoked by the scheduler, the bot, and the web API. Controllers perform the
// (simulated) external effect and record every action in the action log.
package devices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ohrachov/plantmon/internal/errdefs"
)

// ActionLogger records performed actions. Satisfied by *store.Store.
type ActionLogger interface {
	AppendLog(ctx context.Context, action string) error
}

// Actuator is the external effect behind a controller. The real hardware
// stays out of scope; the simulated implementation sleeps instead.
type Actuator interface {
	Water(ctx context.Context, duration time.Duration) error
	Light(ctx context.Context, on bool) error
}

// Controller exposes the two device operations. It is safe for concurrent
// use; a watering in flight never blocks a lighting action.
type Controller struct {
	logger   *slog.Logger
	actions  ActionLogger
	actuator Actuator
}

// ControllerConfig holds the configuration for a Controller.
type ControllerConfig struct {
	Logger   *slog.Logger
	Actions  ActionLogger
	Actuator Actuator
}

// NewController creates a new Controller instance.
func NewController(cfg *ControllerConfig) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("controller config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Actions == nil {
		return nil, errors.New("action logger cannot be nil")
	}

	if cfg.Actuator == nil {
		return nil, errors.New("actuator cannot be nil")
	}

	return &Controller{
		logger:   cfg.Logger,
		actions:  cfg.Actions,
		actuator: cfg.Actuator,
	}, nil
}

// Water waters the plants for the given number of minutes, logging the start
// and completion of the action.
func (c *Controller) Water(ctx context.Context, durationMinutes int) error {
	if durationMinutes < 0 {
		return errdefs.Validationf("watering duration cannot be negative: %d", durationMinutes)
	}

	started := fmt.Sprintf("Started watering plants for %d minutes.", durationMinutes)
	if err := c.actions.AppendLog(ctx, started); err != nil {
		return err
	}
	c.logger.Info("watering started", "duration_minutes", durationMinutes)

	if err := c.actuator.Water(ctx, time.Duration(durationMinutes)*time.Minute); err != nil {
		return errdefs.Provider("watering", err)
	}

	if err := c.actions.AppendLog(ctx, "Completed watering plants."); err != nil {
		return err
	}
	c.logger.Info("watering completed", "duration_minutes", durationMinutes)

	return nil
}

// ControlLight turns the lights on or off. An invalid action fails
// validation and leaves no log entry.
func (c *Controller) ControlLight(ctx context.Context, action string) error {
	if action != "on" && action != "off" {
		return errdefs.Validationf("invalid action for lights: %q (use \"on\" or \"off\")", action)
	}

	if err := c.actions.AppendLog(ctx, fmt.Sprintf("Lights turned %s.", action)); err != nil {
		return err
	}
	c.logger.Info("lights switched", "action", action)

	if err := c.actuator.Light(ctx, action == "on"); err != nil {
		return errdefs.Provider("lighting", err)
	}

	return nil
}
