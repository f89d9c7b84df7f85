package application

import (
	"context"
	"log/slog"
	"time"
)

// Runner is a unit of work invoked on every tick.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Scheduler invokes a Runner on a fixed interval. Ticks run on the calling
// goroutine, so a tick that outlasts the interval delays the next one rather
// than overlapping it.
type Scheduler struct {
	runner         Runner
	interval       time.Duration
	runImmediately bool
	logger         *slog.Logger
}

// NewScheduler creates a Scheduler. When runImmediately is false the first
// tick happens one interval after Start is called.
func NewScheduler(runner Runner, interval time.Duration, runImmediately bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:         runner,
		interval:       interval,
		runImmediately: runImmediately,
		logger:         logger,
	}
}

// Start blocks, ticking until the context is canceled or a tick fails.
// Cancellation returns nil; a tick error is returned as-is.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"interval", s.interval,
		"run_immediately", s.runImmediately,
	)

	if s.runImmediately {
		if err := s.tick(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) error {
	err := s.runner.RunOnce(ctx)
	if err != nil && ctx.Err() != nil {
		// Canceled mid-tick; shutting down is not a failure.
		s.logger.Info("scheduler stopped during tick", "error", err)
		return nil
	}
	return err
}
