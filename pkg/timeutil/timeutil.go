// Package timeutil provides context-aware timing helpers.
package timeutil

import (
	"context"
	"iter"
	"time"
)

// Sleep blocks for the given duration or until the context is cancelled.
func Sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IterTick yields roughly every period until the context is cancelled.
// Ticks that arrive early, e.g. after the process was suspended, are
// dropped rather than delivered in a burst.
func IterTick(ctx context.Context, period time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		now := time.Now()
		next := now.Add(period)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				if t.After(next) {
					next = t.Add(period)
					if !yield(t) {
						return
					}
				}
			}
		}
	}
}
