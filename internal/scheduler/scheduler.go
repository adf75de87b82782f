// Package scheduler triggers the reconciliation sweep periodically.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"event-ticketing-manager/internal/services"
)

// SweepScheduler runs the sweep on a fixed interval. Runs never overlap;
// a tick that arrives while a sweep is still running is skipped.
type SweepScheduler struct {
	scheduler gocron.Scheduler
	sweep     services.SweepServiceInterface
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a stopped scheduler. The first sweep runs as soon as Start
// is called.
func New(sweep services.SweepServiceInterface, interval time.Duration, loc *time.Location, logger *slog.Logger) (*SweepScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ss := &SweepScheduler{
		scheduler: s,
		sweep:     sweep,
		interval:  interval,
		logger:    logger,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(ss.run),
		gocron.WithName("reconciliation-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule sweep: %w", err)
	}

	return ss, nil
}

// Start begins running the sweep in the background.
func (s *SweepScheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("sweep scheduler started", "interval", s.interval)
}

// Stop waits for a running sweep to finish and stops the scheduler.
func (s *SweepScheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("sweep scheduler stopped")
	return nil
}

// run gives each sweep at most one interval.
func (s *SweepScheduler) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if _, err := s.sweep.Run(ctx); err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
	}
}
