package processor

import (
	"context"
	"log/slog"
	"time"
)

// Loop invokes a Processor on a fixed wall-clock cadence. Each iteration's
// runtime is subtracted from the interval so successive runs are spaced by
// the configured interval, not interval plus runtime.
type Loop struct {
	processor Processor
	interval  time.Duration

	// injectable for tests
	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

func NewLoop(p Processor, interval time.Duration) *Loop {
	return &Loop{
		processor: p,
		interval:  interval,
		now:       time.Now,
		wait:      sleepContext,
	}
}

// Run loops until ctx is cancelled. A failed iteration is logged and the
// loop proceeds on schedule; no run error terminates the loop.
func (l *Loop) Run(ctx context.Context) {
	slog.Info("Starting perpetual ingest", "interval", l.interval)
	for {
		start := l.now()
		if err := l.processor.Run(ctx); err != nil {
			slog.Error("Ingest run failed", "error", err)
		}
		if ctx.Err() != nil {
			slog.Info("Received shutdown signal. Exiting ingest loop.")
			return
		}

		sleep := l.interval - l.now().Sub(start)
		if sleep < 0 {
			sleep = 0
		}
		slog.Debug("Sleeping before next run", "duration", sleep)
		if err := l.wait(ctx, sleep); err != nil {
			slog.Info("Received shutdown signal. Exiting ingest loop.")
			return
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
