// Package queue is a durable, priority-ordered job queue backed by a Store.
// Jobs carry a JSON payload, may be scheduled in the future, are retried with
// exponential backoff, and are limited per job type in how many run at once.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrUnrecoverable marks a handler error that must not be retried. Wrap it:
//
//	fmt.Errorf("%w: connection %s not found", queue.ErrUnrecoverable, id)
var ErrUnrecoverable = errors.New("unrecoverable job error")

type Job struct {
	ID          string     `db:"id"`
	Type        string     `db:"type"`
	Payload     []byte     `db:"payload"`
	Priority    int        `db:"priority"`
	Status      Status     `db:"status"`
	Attempts    int        `db:"attempts"`
	MaxAttempts int        `db:"max_attempts"`
	RunAt       time.Time  `db:"run_at"`
	LockedAt    *time.Time `db:"locked_at"`
	LockedBy    *string    `db:"locked_by"`
	LastError   *string    `db:"last_error"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("%w: decode %s payload: %v", ErrUnrecoverable, j.Type, err)
	}
	return nil
}

// FinalAttempt reports whether a failure of the current attempt exhausts the
// job's retries. Attempts is incremented when the job is claimed.
func (j *Job) FinalAttempt() bool {
	return j.Attempts >= j.MaxAttempts
}

type Store interface {
	Insert(ctx context.Context, job *Job) error
	// Claim locks the next runnable job of jobType, provided fewer than limit
	// jobs of that type are active. It returns nil when nothing is runnable.
	Claim(ctx context.Context, jobType string, limit int, workerID string) (*Job, error)
	Complete(ctx context.Context, id string) error
	Retry(ctx context.Context, id string, runAt time.Time, lastError string) error
	Fail(ctx context.Context, id string, lastError string) error
	// Heartbeat refreshes the lock of an active job still held by workerID.
	Heartbeat(ctx context.Context, id, workerID string) error
	// RecoverStale returns active jobs locked before lockedBefore to the queue.
	RecoverStale(ctx context.Context, lockedBefore time.Time) (int64, error)
}

type enqueueOptions struct {
	priority    int
	delay       time.Duration
	maxAttempts int
}

type Option func(*enqueueOptions)

// WithPriority orders claims; higher runs first.
func WithPriority(p int) Option {
	return func(o *enqueueOptions) { o.priority = p }
}

// WithDelay schedules the job no earlier than now+d.
func WithDelay(d time.Duration) Option {
	return func(o *enqueueOptions) { o.delay = d }
}

func WithMaxAttempts(n int) Option {
	return func(o *enqueueOptions) { o.maxAttempts = n }
}

type Queue struct {
	store       Store
	maxAttempts int
	now         func() time.Time
	logger      *slog.Logger
}

func New(store Store, maxAttempts int, logger *slog.Logger) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Queue{
		store:       store,
		maxAttempts: maxAttempts,
		now:         time.Now,
		logger:      logger.With("component", "queue"),
	}
}

// Enqueue stores a new job of jobType with payload marshalled as JSON.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload any, opts ...Option) (*Job, error) {
	o := enqueueOptions{maxAttempts: q.maxAttempts}
	for _, opt := range opts {
		opt(&o)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	now := q.now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Type:        jobType,
		Payload:     body,
		Priority:    o.priority,
		Status:      StatusQueued,
		MaxAttempts: o.maxAttempts,
		RunAt:       now.Add(o.delay),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := q.store.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	q.logger.Debug("job enqueued",
		"job_id", job.ID,
		"type", jobType,
		"priority", o.priority,
		"delay", o.delay,
	)
	return job, nil
}

// Requeue schedules a fresh copy of job (same type, payload and priority)
// after delay. Polling continuations use it instead of blocking a worker.
func (q *Queue) Requeue(ctx context.Context, job *Job, delay time.Duration) (*Job, error) {
	return q.Enqueue(ctx, job.Type, json.RawMessage(job.Payload),
		WithPriority(job.Priority),
		WithDelay(delay),
		WithMaxAttempts(job.MaxAttempts),
	)
}
