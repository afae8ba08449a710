// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SessionPurger removes expired sessions and reports how many were removed.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logrus.Logger
	timeout time.Duration
}

// NewScheduler creates a scheduler. A nil logger uses the logrus standard logger.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		timeout: time.Minute,
	}
}

// AddSessionCleanup registers expired-session cleanup on schedule, a standard
// five-field cron expression or a descriptor such as "@hourly".
func (s *Scheduler) AddSessionCleanup(schedule string, purger SessionPurger) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.runSessionCleanup(purger) }); err != nil {
		return fmt.Errorf("jobs: session cleanup schedule %q: %w", schedule, err)
	}
	s.logger.WithField("schedule", schedule).Info("session cleanup scheduled")
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runSessionCleanup(purger SessionPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Error("session cleanup failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"removed":  n,
		"duration": time.Since(start).String(),
	}).Info("session cleanup finished")
}
