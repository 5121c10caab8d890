package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	// defaultSchedule sweeps every six hours
	defaultSchedule = "0 0 */6 * * *"

	// sweepTimeout bounds a single scheduled sweep
	sweepTimeout = 30 * time.Minute
)

// Scheduler runs backfill sweeps on a cron schedule
type Scheduler struct {
	backfill *Service
	cron     *cron.Cron
	schedule string
	logger   arbor.ILogger
	running  bool
}

// NewScheduler creates a scheduler for the given backfill service. The
// schedule uses six-field cron syntax with a seconds column.
func NewScheduler(backfill *Service, schedule string, logger arbor.ILogger) *Scheduler {
	if schedule == "" {
		schedule = defaultSchedule
	}

	return &Scheduler{
		backfill: backfill,
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins scheduled sweeps
func (s *Scheduler) Start() error {
	if s.running {
		return fmt.Errorf("backfill scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduledSweep); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Msg("Backfill scheduler started")

	return nil
}

// Stop halts scheduled sweeps. A sweep already in flight finishes on its own.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Backfill scheduler stopped")
}

// IsRunning returns true while the scheduler is active
func (s *Scheduler) IsRunning() bool {
	return s.running
}

// RunNow triggers a sweep outside the schedule
func (s *Scheduler) RunNow() (*models.BackfillStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	return s.backfill.Run(ctx)
}

// runScheduledSweep wraps the sweep with panic recovery so a bad run never
// takes down the cron goroutine
func (s *Scheduler) runScheduledSweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled backfill")
		}
	}()

	if _, err := s.RunNow(); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled backfill failed")
	}
}
