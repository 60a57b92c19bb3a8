// Package ratelimit paces a simulation run so streaming sinks receive steps
// at a steady rate instead of in one burst.
package ratelimit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// Pacer limits how many steps per second a run may complete.
// A nil Pacer never waits.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer releasing stepsPerSecond steps per second with a
// burst of one step. Returns nil for a non-positive rate, meaning unpaced.
func NewPacer(stepsPerSecond float64) *Pacer {
	if stepsPerSecond <= 0 || math.IsInf(stepsPerSecond, 1) {
		return nil
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(stepsPerSecond), 1)}
}

// Rate is the configured number of steps per second, 0 when unpaced.
func (p *Pacer) Rate() float64 {
	if p == nil {
		return 0
	}
	return float64(p.limiter.Limit())
}

// Wait blocks until the next step may start. It returns early with an error
// when ctx is done or its deadline would pass before the step is released.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("step pacing interrupted: %w", err)
	}
	return nil
}
