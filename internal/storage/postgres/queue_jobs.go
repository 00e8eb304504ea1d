package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"commerce_sync/internal/queue"
)

const queueJobColumns = `id, type, payload, priority, status, attempts, max_attempts,
	run_at, locked_at, locked_by, last_error, created_at, updated_at`

// QueueStore persists queue jobs in queue_jobs. It implements queue.Store.
type QueueStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewQueueStore(db *sqlx.DB) *QueueStore {
	return &QueueStore{db: db, tm: NewTransactionManager(db).WithIsolation(sql.LevelReadCommitted)}
}

func (s *QueueStore) Insert(ctx context.Context, job *queue.Job) error {
	query := `
		INSERT INTO queue_jobs (
			id, type, payload, priority, status, attempts, max_attempts,
			run_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		job.ID,
		job.Type,
		string(job.Payload),
		job.Priority,
		job.Status,
		job.Attempts,
		job.MaxAttempts,
		job.RunAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

// Claim serialises claimers of one job type with a transaction-scoped
// advisory lock so the active count and the claim are consistent.
func (s *QueueStore) Claim(ctx context.Context, jobType string, limit int, workerID string) (*queue.Job, error) {
	var claimed *queue.Job

	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "queue:"+jobType); err != nil {
			return err
		}

		var active int
		err := sqlx.GetContext(ctx, exec, &active,
			`SELECT COUNT(*) FROM queue_jobs WHERE type = $1 AND status = 'active'`,
			jobType,
		)
		if err != nil {
			return err
		}
		if active >= limit {
			return nil
		}

		query := `
			UPDATE queue_jobs SET
				status = 'active',
				attempts = attempts + 1,
				locked_at = now(),
				locked_by = $2,
				updated_at = now()
			WHERE id = (
				SELECT id FROM queue_jobs
				WHERE type = $1 AND status = 'queued' AND run_at <= now()
				ORDER BY priority DESC, run_at ASC
				LIMIT 1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING ` + queueJobColumns

		var job queue.Job
		err = sqlx.GetContext(ctx, exec, &job, query, jobType, workerID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *QueueStore) Complete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE queue_jobs SET
			status = 'completed',
			locked_at = NULL,
			locked_by = NULL,
			updated_at = now()
		WHERE id = $1`, id)
	return err
}

func (s *QueueStore) Retry(ctx context.Context, id string, runAt time.Time, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE queue_jobs SET
			status = 'queued',
			run_at = $2,
			last_error = $3,
			locked_at = NULL,
			locked_by = NULL,
			updated_at = now()
		WHERE id = $1`, id, runAt, lastError)
	return err
}

func (s *QueueStore) Fail(ctx context.Context, id string, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE queue_jobs SET
			status = 'failed',
			last_error = $2,
			locked_at = NULL,
			locked_by = NULL,
			updated_at = now()
		WHERE id = $1`, id, lastError)
	return err
}

// Heartbeat is a no-op once the job was recovered or claimed by another
// worker.
func (s *QueueStore) Heartbeat(ctx context.Context, id, workerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE queue_jobs SET
			locked_at = now(),
			updated_at = now()
		WHERE id = $1 AND status = 'active' AND locked_by = $2`, id, workerID)
	return err
}

func (s *QueueStore) RecoverStale(ctx context.Context, lockedBefore time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_jobs SET
			status = 'queued',
			locked_at = NULL,
			locked_by = NULL,
			updated_at = now()
		WHERE status = 'active' AND locked_at < $1`, lockedBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
