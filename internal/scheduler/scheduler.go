// Package scheduler triggers the pipeline on a daily cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a scheduled pipeline invocation.
type Job func(ctx context.Context) error

// Scheduler runs the pipeline once a day at the configured hour.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a Scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(), logger: logger}
}

// AddDailyJob schedules job to run every day at hour:00.
func (s *Scheduler) AddDailyJob(name string, hour int, job Job) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("run hour must be between 0 and 23, got %d", hour)
	}
	spec := fmt.Sprintf("0 %d * * *", hour)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		s.logger.Info("starting scheduled job", zap.String("job", name))
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job completed",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.logger.Info("scheduled daily job", zap.String("job", name), zap.Int("hour", hour))
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and returns a context that completes when any
// running job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
