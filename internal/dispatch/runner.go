package dispatch

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is how often Runner sweeps when none is configured.
const DefaultPollInterval = time.Minute

// Runner sweeps on a fixed interval until its context is cancelled.
// Run must be called from exactly one goroutine.
type Runner struct {
	dispatcher *Dispatcher
	interval   time.Duration
	logger     *slog.Logger
	afterSweep func(SweepResult, error) // test hook
}

// NewRunner creates a Runner for d. A non-positive interval uses
// DefaultPollInterval.
func NewRunner(d *Dispatcher, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Runner{
		dispatcher: d,
		interval:   interval,
		logger:     d.logger,
	}
}

// Run sweeps once immediately and then on every tick. Sweep
// errors are logged and the loop continues. Returns ctx.Err() when the
// context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("email dispatcher starting", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		res, err := r.dispatcher.Sweep(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.Error("email sweep failed", "error", err)
		}
		if r.afterSweep != nil {
			r.afterSweep(res, err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("email dispatcher stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
