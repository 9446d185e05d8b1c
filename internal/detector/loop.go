package detector

import (
	"context"
	"time"
)

// LoopConfig bounds a detector's polling loop.
type LoopConfig struct {
	// Interval is the sleep between ticks.
	Interval time.Duration
	// MaxIterations stops the loop after this many ticks; 0 means unbounded.
	MaxIterations int
	// MaxDuration stops the loop once this much time has elapsed; 0 means
	// unbounded.
	MaxDuration time.Duration
}

// runLoop drives a cooperative single-threaded polling loop: one tick, one
// sleep, until an iteration or duration bound is reached or ctx is cancelled.
// A tick error ends the loop; per-venue failures are handled inside the tick
// and never surface here.
func runLoop(ctx context.Context, cfg LoopConfig, tick func(ctx context.Context, iteration int) error) error {
	start := time.Now()
	for i := 0; ; i++ {
		if cfg.MaxIterations > 0 && i >= cfg.MaxIterations {
			return nil
		}
		if cfg.MaxDuration > 0 && time.Since(start) >= cfg.MaxDuration {
			return nil
		}
		if err := tick(ctx, i); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
}
