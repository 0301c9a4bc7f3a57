package devices

import (
	"context"
	"time"
)

// SimulatedActuator imitates the pump and the grow light by sleeping. One
// scheduled watering minute costs PerMinute of wall time so a demo run stays
// observable without real-time waits.
type SimulatedActuator struct {
	// PerMinute is the wall-time cost of one watering minute.
	// Zero means no wait at all.
	PerMinute time.Duration
}

// Water sleeps for the scaled duration, honoring cancellation.
func (a *SimulatedActuator) Water(ctx context.Context, duration time.Duration) error {
	if a.PerMinute <= 0 {
		return nil
	}

	wait := time.Duration(duration.Minutes() * float64(a.PerMinute))
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Light switches the simulated light instantly.
func (a *SimulatedActuator) Light(_ context.Context, _ bool) error {
	return nil
}
