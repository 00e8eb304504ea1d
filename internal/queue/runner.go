package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
)

// Handler processes one job. Returning an error hands the job to the retry
// policy; errors wrapping ErrUnrecoverable fail the job immediately.
type Handler func(ctx context.Context, job *Job) error

type RunnerConfig struct {
	PollInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// StaleAfter is how old a lock must be before RecoverStale reclaims the
	// job. Running handlers refresh their lock every HeartbeatInterval,
	// which defaults to a third of StaleAfter.
	StaleAfter        time.Duration
	HeartbeatInterval time.Duration
	WorkerID          string
}

type registration struct {
	handler     Handler
	concurrency int
}

type Runner struct {
	store     Store
	cfg       RunnerConfig
	handlers  map[string]registration
	order     []string
	onFailure func(job *Job, err error)
	metrics   *Metrics
	now       func() time.Time
	logger    *slog.Logger
}

func NewRunner(store Store, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.HeartbeatInterval <= 0 && cfg.StaleAfter > 0 {
		cfg.HeartbeatInterval = cfg.StaleAfter / 3
	}
	return &Runner{
		store:    store,
		cfg:      cfg,
		handlers: make(map[string]registration),
		metrics:  NewMetrics(otel.GetMeterProvider()),
		now:      time.Now,
		logger:   logger.With("component", "queue_runner", "worker_id", cfg.WorkerID),
	}
}

// Register binds a handler to jobType. At most concurrency jobs of that type
// are active at once across every runner sharing the store.
func (r *Runner) Register(jobType string, h Handler, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	if _, exists := r.handlers[jobType]; !exists {
		r.order = append(r.order, jobType)
	}
	r.handlers[jobType] = registration{handler: h, concurrency: concurrency}
}

// OnFailure installs the failure channel callback. It fires for every handler
// error, retried or not.
func (r *Runner) OnFailure(fn func(job *Job, err error)) {
	r.onFailure = fn
}

// Start runs the worker loops until ctx is cancelled. In-flight jobs are not
// cleaned up on shutdown; RecoverStale returns them to the queue later.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info("queue runner started", "types", r.order)

	r.recoverStale(ctx)

	var wg sync.WaitGroup
	for _, jobType := range r.order {
		reg := r.handlers[jobType]
		for i := 0; i < reg.concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.loop(ctx, jobType)
			}()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.staleLoop(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	r.logger.Info("queue runner stopped")
	return ctx.Err()
}

func (r *Runner) loop(ctx context.Context, jobType string) {
	for {
		processed, err := r.RunOnce(ctx, jobType)
		if err != nil && ctx.Err() == nil {
			r.logger.Error("claim job", "type", jobType, "error", err)
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

func (r *Runner) staleLoop(ctx context.Context) {
	if r.cfg.StaleAfter <= 0 {
		return
	}
	ticker := time.NewTicker(r.cfg.StaleAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.recoverStale(ctx)
		}
	}
}

func (r *Runner) recoverStale(ctx context.Context) {
	if r.cfg.StaleAfter <= 0 {
		return
	}
	n, err := r.store.RecoverStale(ctx, r.now().Add(-r.cfg.StaleAfter))
	if err != nil {
		r.logger.Warn("recover stale jobs", "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("recovered stale jobs", "count", n)
	}
}

// RunOnce claims and handles at most one job of jobType. It reports whether
// a job was processed.
func (r *Runner) RunOnce(ctx context.Context, jobType string) (bool, error) {
	reg, ok := r.handlers[jobType]
	if !ok {
		return false, fmt.Errorf("no handler registered for %q", jobType)
	}

	job, err := r.store.Claim(ctx, jobType, reg.concurrency, r.cfg.WorkerID)
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}
	if job == nil {
		return false, nil
	}

	r.handle(ctx, reg.handler, job)
	return true, nil
}

func (r *Runner) handle(ctx context.Context, h Handler, job *Job) {
	logger := r.logger.With("job_id", job.ID, "type", job.Type, "attempt", job.Attempts)
	start := r.now()

	stop := r.keepAlive(ctx, job, logger)
	err := r.safeCall(ctx, h, job)
	stop()
	duration := r.now().Sub(start)

	if err == nil {
		if cerr := r.store.Complete(ctx, job.ID); cerr != nil {
			logger.Error("complete job", "error", cerr)
		}
		r.metrics.Record(ctx, job.Type, "completed", duration)
		logger.Debug("job completed", "duration", duration)
		return
	}

	if ctx.Err() != nil {
		logger.Warn("job interrupted by shutdown", "error", err)
		return
	}

	if r.onFailure != nil {
		r.onFailure(job, err)
	}

	if errors.Is(err, ErrUnrecoverable) || job.FinalAttempt() {
		if ferr := r.store.Fail(ctx, job.ID, err.Error()); ferr != nil {
			logger.Error("fail job", "error", ferr)
		}
		r.metrics.Record(ctx, job.Type, "failed", duration)
		logger.Error("job failed",
			"error", err,
			"unrecoverable", errors.Is(err, ErrUnrecoverable),
		)
		return
	}

	backoff := Backoff(job.Attempts, r.cfg.InitialBackoff, r.cfg.MaxBackoff)
	if rerr := r.store.Retry(ctx, job.ID, r.now().Add(backoff), err.Error()); rerr != nil {
		logger.Error("retry job", "error", rerr)
	}
	r.metrics.Record(ctx, job.Type, "retried", duration)
	logger.Warn("job failed, retrying", "error", err, "backoff", backoff)
}

// keepAlive refreshes the job's lock until the returned stop func is called.
func (r *Runner) keepAlive(ctx context.Context, job *Job, logger *slog.Logger) func() {
	if r.cfg.HeartbeatInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(r.cfg.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.store.Heartbeat(ctx, job.ID, r.cfg.WorkerID); err != nil {
					logger.Warn("extend job lock", "error", err)
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (r *Runner) safeCall(ctx context.Context, h Handler, job *Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h(ctx, job)
}
