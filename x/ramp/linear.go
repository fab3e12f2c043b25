// Package ramp steps an output level from one value to another over time.
package ramp

import (
	"context"
	"time"

	"extio-go/extio"
)

// Linear calls set with evenly spaced levels from `from` to `to`, spread over
// d in steps increments, and always finishes on `to`. steps <= 0 or d <= 0
// snaps straight to `to`. It returns ctx.Err() if cancelled on the way; the
// last level set stays in place.
func Linear(ctx context.Context, from, to extio.Analog, d time.Duration, steps int, set func(extio.Analog) error) error {
	if steps <= 0 || d <= 0 {
		return set(to)
	}
	every := d / time.Duration(steps)
	if every <= 0 {
		every = time.Millisecond
	}
	t := time.NewTicker(every)
	defer t.Stop()

	span := int(to) - int(from)
	for i := 1; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := set(extio.Analog(int(from) + span*i/steps)); err != nil {
			return err
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	return set(to)
}
