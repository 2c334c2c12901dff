// Package scheduler runs the daily import and report snapshot.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ustunfatih/oktan/internal/report"
)

// Job is the work done on every scheduled run.
type Job interface {
	// ImportAll re-imports every registered source.
	ImportAll(ctx context.Context)
	// Snapshot recomputes the report over the stored records.
	Snapshot(ctx context.Context) (report.Report, error)
}

// Scheduler manages the daily snapshot schedule.
type Scheduler struct {
	job          Job
	snapshotHour int
	logger       zerolog.Logger
	now          func() time.Time

	mu             sync.RWMutex
	nextSnapshotAt time.Time
	lastSnapshotAt *time.Time
	running        bool
}

// New creates a new Scheduler that runs job every day at snapshotHour local time.
func New(job Job, snapshotHour int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		job:          job,
		snapshotHour: snapshotHour,
		logger:       logger.With().Str("component", "scheduler").Logger(),
		now:          time.Now,
	}
}

// Start runs the job once, then daily, and blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info().Int("snapshotHour", s.snapshotHour).Msg("starting scheduler")

	// Publish a snapshot right away so metrics are populated after a restart.
	s.run(ctx)

	next := s.scheduleNext()
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.run(ctx)
			next = s.scheduleNext()
			timer.Reset(time.Until(next))
		}
	}
}

func (s *Scheduler) scheduleNext() time.Time {
	next := nextRunAfter(s.now(), s.snapshotHour)
	s.mu.Lock()
	s.nextSnapshotAt = next
	s.mu.Unlock()

	s.logger.Info().
		Time("nextSnapshot", next).
		Dur("duration", time.Until(next)).
		Msg("next snapshot scheduled")
	return next
}

// nextRunAfter returns the first time at hour:00 strictly after now.
func nextRunAfter(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, now.Location())
	}
	return next
}

func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info().Msg("running scheduled snapshot")

	now := s.now()
	s.mu.Lock()
	s.lastSnapshotAt = &now
	s.mu.Unlock()

	s.job.ImportAll(ctx)
	if _, err := s.job.Snapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled snapshot failed")
	} else {
		s.logger.Info().Msg("scheduled snapshot completed")
	}
}

// NextSnapshotAt returns the time of the next scheduled snapshot.
func (s *Scheduler) NextSnapshotAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSnapshotAt
}

// LastSnapshotAt returns the time of the last snapshot.
func (s *Scheduler) LastSnapshotAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshotAt
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
