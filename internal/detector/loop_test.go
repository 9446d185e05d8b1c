package detector

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunLoopStopsAtIterationBound(t *testing.T) {
	var ticks int
	err := runLoop(context.Background(), LoopConfig{
		Interval:      time.Millisecond,
		MaxIterations: 3,
	}, func(_ context.Context, iteration int) error {
		if iteration != ticks {
			t.Errorf("iteration = %d, want %d", iteration, ticks)
		}
		ticks++
		return nil
	})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}
	if ticks != 3 {
		t.Errorf("ran %d ticks, want 3", ticks)
	}
}

func TestRunLoopStopsAtDurationBound(t *testing.T) {
	var ticks int
	err := runLoop(context.Background(), LoopConfig{
		Interval:    5 * time.Millisecond,
		MaxDuration: 20 * time.Millisecond,
	}, func(context.Context, int) error {
		ticks++
		return nil
	})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}
	if ticks == 0 {
		t.Error("loop never ticked before the duration bound")
	}
	if ticks > 10 {
		t.Errorf("ran %d ticks, duration bound did not stop the loop", ticks)
	}
}

func TestRunLoopStopsOnCancellationDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks int
	err := runLoop(ctx, LoopConfig{
		Interval: time.Hour, // cancellation must interrupt the sleep
	}, func(context.Context, int) error {
		ticks++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runLoop error = %v, want context.Canceled", err)
	}
	if ticks != 1 {
		t.Errorf("ran %d ticks, want 1", ticks)
	}
}

func TestRunLoopSurfacesTickError(t *testing.T) {
	boom := errors.New("tick failed")
	err := runLoop(context.Background(), LoopConfig{Interval: time.Millisecond}, func(context.Context, int) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("runLoop error = %v, want the tick's error", err)
	}
}
