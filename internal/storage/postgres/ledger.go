package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"commerce_sync/internal/domain"
)

var (
	ErrJobNotFound       = domain.ErrJobNotFound
	ErrInvalidTransition = domain.ErrInvalidTransition
)

const etlJobColumns = `id, brand_id, connection_id, entity, job_type, status,
	bulk_operation_id, rows_written, total_rows, progress_pct, error_message,
	range_start, range_end, created_at, started_at, completed_at, failed_at`

// LedgerStore records ETL job lifecycles in etl_jobs. Entries are never
// deleted.
type LedgerStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewLedgerStore(db *sqlx.DB) *LedgerStore {
	return &LedgerStore{db: db, tm: NewTransactionManager(db)}
}

func (s *LedgerStore) Create(ctx context.Context, job domain.NewETLJob) (string, error) {
	id := uuid.NewString()

	var rangeStart, rangeEnd *string
	if job.Range != nil {
		start := domain.FormatDate(job.Range.Start)
		end := domain.FormatDate(job.Range.End)
		rangeStart, rangeEnd = &start, &end
	}

	query := `
		INSERT INTO etl_jobs (
			id, brand_id, connection_id, entity, job_type, status,
			range_start, range_end, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		id,
		job.BrandID,
		job.ConnectionID,
		job.Entity,
		job.JobType,
		domain.JobPending,
		rangeStart,
		rangeEnd,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert etl job: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of upd. A status change must satisfy
// domain.JobStatus.CanTransition; status timestamps are stamped once.
func (s *LedgerStore) Update(ctx context.Context, id string, upd domain.ETLJobUpdate) error {
	return s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		var current domain.JobStatus
		err := sqlx.GetContext(ctx, exec, &current,
			`SELECT status FROM etl_jobs WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		if err != nil {
			return err
		}

		var sets []string
		var args []interface{}
		add := func(expr string, v interface{}) {
			args = append(args, v)
			sets = append(sets, expr+" = $"+strconv.Itoa(len(args)))
		}

		if upd.Status != nil {
			if !current.CanTransition(*upd.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, *upd.Status)
			}
			add("status", *upd.Status)
			switch *upd.Status {
			case domain.JobRunning:
				sets = append(sets, "started_at = COALESCE(started_at, now())")
			case domain.JobCompleted:
				sets = append(sets, "completed_at = COALESCE(completed_at, now())")
			case domain.JobFailed:
				sets = append(sets, "failed_at = COALESCE(failed_at, now())")
			}
		} else if current.Terminal() {
			return fmt.Errorf("%w: %s entry is final", ErrInvalidTransition, current)
		}
		if upd.BulkOperationID != nil {
			add("bulk_operation_id", *upd.BulkOperationID)
		}
		if upd.RowsWritten != nil {
			add("rows_written", *upd.RowsWritten)
		}
		if upd.TotalRows != nil {
			add("total_rows", *upd.TotalRows)
		}
		if upd.ProgressPct != nil {
			add("progress_pct", *upd.ProgressPct)
		}
		if upd.ErrorMessage != nil {
			add("error_message", *upd.ErrorMessage)
		}

		if len(sets) == 0 {
			return nil
		}

		args = append(args, id)
		query := "UPDATE etl_jobs SET " + strings.Join(sets, ", ") +
			" WHERE id = $" + strconv.Itoa(len(args))

		_, err = exec.ExecContext(ctx, query, args...)
		return err
	})
}

func (s *LedgerStore) Get(ctx context.Context, id string) (*domain.ETLJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	var job domain.ETLJob
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &job,
		`SELECT `+etlJobColumns+` FROM etl_jobs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListLatestByConnection returns the most recent entry per (entity, job type)
// for a connection.
func (s *LedgerStore) ListLatestByConnection(ctx context.Context, connectionID string) ([]domain.ETLJob, error) {
	query := `
		SELECT DISTINCT ON (entity, job_type) ` + etlJobColumns + `
		FROM etl_jobs
		WHERE connection_id = $1
		ORDER BY entity, job_type, created_at DESC`

	var jobs []domain.ETLJob
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &jobs, query, connectionID)
	return jobs, err
}
