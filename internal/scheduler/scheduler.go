package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Task is one periodic unit of work, such as a gap scan over every
// connection.
type Task interface {
	RunAll(ctx context.Context) error
}

type Scheduler struct {
	task     Task
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(task Task, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		task:     task,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs the task immediately and then every interval until ctx is
// cancelled. A non-positive interval disables the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("scheduler disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info("scheduler started", "interval", s.interval)

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.task.RunAll(runCtx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Debug("scheduled run finished", "duration", time.Since(start))
}
