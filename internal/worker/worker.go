// Package worker runs the sync pipeline: a recent-sync entry point, the
// orders -> customers -> products bulk export chain, and the poll loop that
// processes finished exports.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"commerce_sync/internal/domain"
	"commerce_sync/internal/lock"
	"commerce_sync/internal/queue"
	"commerce_sync/internal/shopify"
)

type Config struct {
	PollInterval  time.Duration
	ConflictDelay time.Duration
	StuckAfter    time.Duration
	LockTTL       time.Duration
	// Since bounds full-history exports by updated_at.
	Since time.Time
}

type Worker struct {
	queue      Enqueuer
	dispatcher *Dispatcher
	ledger     Ledger
	conns      ConnectionStore
	bulk       BulkClient
	processor  ResultProcessor
	publisher  Publisher
	locker     Locker
	cfg        Config
	now        func() time.Time
	logger     *slog.Logger
}

func New(
	q Enqueuer,
	ledger Ledger,
	conns ConnectionStore,
	bulk BulkClient,
	processor ResultProcessor,
	publisher Publisher,
	locker Locker,
	cfg Config,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		queue:      q,
		dispatcher: NewDispatcher(q, ledger),
		ledger:     ledger,
		conns:      conns,
		bulk:       bulk,
		processor:  processor,
		publisher:  publisher,
		locker:     locker,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger.With("component", "worker"),
	}
}

// Register binds the handlers to r with per-type concurrency limits.
func (w *Worker) Register(r *queue.Runner, concurrency map[string]int) {
	r.Register(JobRecentSync, w.HandleRecentSync, concurrency[JobRecentSync])
	r.Register(JobBulkSync, w.HandleBulkSync, concurrency[JobBulkSync])
	r.Register(JobPollBulk, w.HandlePollBulk, concurrency[JobPollBulk])
	r.OnFailure(w.onFailure)
}

func (w *Worker) onFailure(job *queue.Job, err error) {
	w.logger.Error("job failed",
		"job_id", job.ID,
		"type", job.Type,
		"attempt", job.Attempts,
		"max_attempts", job.MaxAttempts,
		"error", err,
	)
}

func (w *Worker) connection(ctx context.Context, id string) (*domain.Connection, error) {
	conn, err := w.conns.Get(ctx, id)
	if errors.Is(err, domain.ErrConnectionNotFound) {
		return nil, fmt.Errorf("%w: %w", queue.ErrUnrecoverable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	return conn, nil
}

func target(conn *domain.Connection) domain.FactTarget {
	return domain.FactTarget{BrandID: conn.BrandID, ConnectionID: conn.ID, Platform: conn.Platform}
}

// HandleRecentSync records the entry point of a sync and starts the bulk
// chain. Payloads with a date range run a narrow order refresh instead.
func (w *Worker) HandleRecentSync(ctx context.Context, job *queue.Job) error {
	var p RecentSyncPayload
	if err := job.Decode(&p); err != nil {
		return err
	}
	if p.Range != nil {
		return w.refreshRange(ctx, job, p)
	}

	conn, err := w.connection(ctx, p.ConnectionID)
	if err != nil {
		return err
	}
	logger := w.logger.With("brand_id", conn.BrandID, "connection_id", conn.ID)

	id, err := w.ledger.Create(ctx, domain.NewETLJob{
		BrandID:      conn.BrandID,
		ConnectionID: conn.ID,
		Entity:       domain.EntityRecent,
		JobType:      domain.JobTypeRecentSync,
	})
	if err != nil {
		return fmt.Errorf("create recent sync ledger entry: %w", err)
	}

	zero := int64(0)
	if err := w.ledger.Update(ctx, id, domain.ETLJobUpdate{
		Status:      domain.StatusPtr(domain.JobCompleted),
		RowsWritten: &zero,
	}); err != nil {
		return fmt.Errorf("complete recent sync ledger entry: %w", err)
	}

	if err := w.conns.SetSyncStatus(ctx, conn.ID, domain.SyncInProgress); err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}

	etlID, err := w.dispatcher.BulkSync(ctx, conn, domain.EntityOrders)
	if err != nil {
		return err
	}

	logger.Info("sync started", "etl_job_id", etlID)
	return nil
}

func (w *Worker) refreshRange(ctx context.Context, job *queue.Job, p RecentSyncPayload) error {
	conn, err := w.connection(ctx, p.ConnectionID)
	if err != nil {
		if errors.Is(err, queue.ErrUnrecoverable) {
			w.failEntry(ctx, p.Metadata.ETLJobID, err)
		}
		return err
	}
	logger := w.logger.With("brand_id", conn.BrandID, "connection_id", conn.ID,
		"start", domain.FormatDate(p.Range.Start), "end", domain.FormatDate(p.Range.End))

	id := p.Metadata.ETLJobID
	if id == "" {
		id, err = w.ledger.Create(ctx, domain.NewETLJob{
			BrandID:      conn.BrandID,
			ConnectionID: conn.ID,
			Entity:       domain.EntityOrders,
			JobType:      domain.JobTypeRangeRefresh,
			Range:        p.Range,
		})
		if err != nil {
			return fmt.Errorf("create range refresh ledger entry: %w", err)
		}
	}

	if err := w.ledger.Update(ctx, id, domain.ETLJobUpdate{Status: domain.StatusPtr(domain.JobRunning)}); err != nil {
		return fmt.Errorf("start range refresh ledger entry: %w", err)
	}

	from, to := p.Range.Bounds(conn.Location())
	rows, err := w.processor.RefreshOrders(ctx, target(conn), conn.Credentials(), from, to)
	if err != nil {
		err = fmt.Errorf("refresh orders: %w", err)
		if job.FinalAttempt() {
			w.failEntry(ctx, id, err)
		}
		return err
	}

	if err := w.ledger.Update(ctx, id, domain.ETLJobUpdate{
		Status:      domain.StatusPtr(domain.JobCompleted),
		RowsWritten: &rows,
		TotalRows:   &rows,
		ProgressPct: intPtr(100),
	}); err != nil {
		return fmt.Errorf("complete range refresh ledger entry: %w", err)
	}

	logger.Info("date range refreshed", "etl_job_id", id, "rows", rows)
	return nil
}

// HandleBulkSync submits one bulk export. The platform runs a single bulk
// operation per shop, so an in-flight one defers this job.
func (w *Worker) HandleBulkSync(ctx context.Context, job *queue.Job) error {
	var p BulkSyncPayload
	if err := job.Decode(&p); err != nil {
		return err
	}
	if !slices.Contains(domain.BulkSequence, p.Entity) {
		err := fmt.Errorf("%w: no bulk export for entity %q", queue.ErrUnrecoverable, p.Entity)
		w.failEntry(ctx, p.Metadata.ETLJobID, err)
		return err
	}

	conn, err := w.connection(ctx, p.ConnectionID)
	if err != nil {
		if errors.Is(err, queue.ErrUnrecoverable) {
			w.failEntry(ctx, p.Metadata.ETLJobID, err)
		}
		return err
	}
	logger := w.logger.With("brand_id", conn.BrandID, "connection_id", conn.ID, "entity", p.Entity)

	if p.Metadata.ETLJobID == "" {
		jobType := domain.JobTypeBulkSync
		if p.Repair() {
			jobType = domain.JobTypeBulkRepair
		}
		p.Metadata.ETLJobID, err = w.ledger.Create(ctx, domain.NewETLJob{
			BrandID:      conn.BrandID,
			ConnectionID: conn.ID,
			Entity:       p.Entity,
			JobType:      jobType,
			Range:        p.Range,
		})
		if err != nil {
			return fmt.Errorf("create bulk ledger entry: %w", err)
		}
	}
	logger = logger.With("etl_job_id", p.Metadata.ETLJobID)

	release, err := w.locker.Acquire(ctx, "bulk:"+conn.ShopDomain, w.cfg.LockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		logger.Info("bulk submit locked by another worker, deferring")
		return w.deferBulk(ctx, job, p)
	}
	if err != nil {
		return w.bulkFailure(ctx, job, conn, p.Metadata.ETLJobID, p.Repair(), err)
	}
	defer release()

	creds := conn.Credentials()

	existing, err := w.bulk.CheckExisting(ctx, creds)
	if err != nil {
		return w.bulkFailure(ctx, job, conn, p.Metadata.ETLJobID, p.Repair(), err)
	}
	if existing != nil && !existing.Status.Terminal() {
		age := w.now().Sub(existing.CreatedAt)
		if w.cfg.StuckAfter > 0 && age > w.cfg.StuckAfter {
			logger.Warn("cancelling stuck bulk operation",
				"bulk_operation_id", existing.ID,
				"status", existing.Status,
				"age", age,
			)
			if err := w.bulk.CancelBulkOperation(ctx, creds, existing.ID); err != nil {
				logger.Warn("cancel stuck bulk operation", "error", err)
			}
		}
		logger.Info("bulk operation in flight, deferring", "bulk_operation_id", existing.ID)
		return w.deferBulk(ctx, job, p)
	}

	op, err := w.bulk.StartBulkExport(ctx, creds, p.Entity, w.exportFilter(conn, p))
	if errors.Is(err, shopify.ErrConflict) {
		logger.Info("bulk submit conflicted, deferring")
		return w.deferBulk(ctx, job, p)
	}
	if err != nil {
		return w.bulkFailure(ctx, job, conn, p.Metadata.ETLJobID, p.Repair(), err)
	}

	if err := w.ledger.Update(ctx, p.Metadata.ETLJobID, domain.ETLJobUpdate{
		Status:          domain.StatusPtr(domain.JobRunning),
		BulkOperationID: &op.ID,
	}); err != nil {
		return fmt.Errorf("mark bulk ledger entry running: %w", err)
	}

	_, err = w.queue.Enqueue(ctx, JobPollBulk, PollBulkPayload{
		ConnectionID:    conn.ID,
		BrandID:         conn.BrandID,
		Entity:          p.Entity,
		BulkOperationID: op.ID,
		Range:           p.Range,
		Metadata:        p.Metadata,
	}, queue.WithDelay(w.cfg.PollInterval), queue.WithPriority(job.Priority))
	if err != nil {
		return fmt.Errorf("enqueue poll: %w", err)
	}

	logger.Info("bulk export submitted", "bulk_operation_id", op.ID)
	return nil
}

func (w *Worker) exportFilter(conn *domain.Connection, p BulkSyncPayload) shopify.ExportFilter {
	if p.Repair() {
		from, to := p.Range.Bounds(conn.Location())
		return shopify.ExportFilter{CreatedFrom: from, CreatedTo: to}
	}
	return shopify.ExportFilter{UpdatedSince: w.cfg.Since}
}

// deferBulk re-enqueues the submit after ConflictDelay. The ledger entry is
// kept running and travels with the new job.
func (w *Worker) deferBulk(ctx context.Context, job *queue.Job, p BulkSyncPayload) error {
	if err := w.ledger.Update(ctx, p.Metadata.ETLJobID, domain.ETLJobUpdate{
		Status: domain.StatusPtr(domain.JobRunning),
	}); err != nil {
		return fmt.Errorf("mark bulk ledger entry running: %w", err)
	}

	_, err := w.queue.Enqueue(ctx, JobBulkSync, p,
		queue.WithDelay(w.cfg.ConflictDelay),
		queue.WithPriority(job.Priority),
	)
	if err != nil {
		return fmt.Errorf("requeue bulk sync: %w", err)
	}
	return nil
}

// HandlePollBulk checks a submitted export. Unfinished exports are polled
// again later; finished ones are processed and the chain advances.
func (w *Worker) HandlePollBulk(ctx context.Context, job *queue.Job) error {
	var p PollBulkPayload
	if err := job.Decode(&p); err != nil {
		return err
	}

	conn, err := w.connection(ctx, p.ConnectionID)
	if err != nil {
		if errors.Is(err, queue.ErrUnrecoverable) {
			w.failEntry(ctx, p.Metadata.ETLJobID, err)
		}
		return err
	}
	logger := w.logger.With(
		"brand_id", conn.BrandID,
		"connection_id", conn.ID,
		"entity", p.Entity,
		"etl_job_id", p.Metadata.ETLJobID,
		"bulk_operation_id", p.BulkOperationID,
	)

	op, err := w.bulk.PollStatus(ctx, conn.Credentials(), p.BulkOperationID)
	if errors.Is(err, shopify.ErrNotFound) {
		w.failBulk(ctx, conn, p.Metadata.ETLJobID, p.Repair(), err)
		return nil
	}
	if err != nil {
		return w.bulkFailure(ctx, job, conn, p.Metadata.ETLJobID, p.Repair(), err)
	}

	switch {
	case !op.Status.Terminal():
		if op.ObjectCount > 0 {
			if err := w.ledger.Update(ctx, p.Metadata.ETLJobID, domain.ETLJobUpdate{
				TotalRows: &op.ObjectCount,
			}); err != nil {
				logger.Warn("record bulk progress", "error", err)
			}
		}
		if _, err := w.queue.Requeue(ctx, job, w.cfg.PollInterval); err != nil {
			return fmt.Errorf("requeue poll: %w", err)
		}
		logger.Debug("bulk operation still running", "status", op.Status, "objects", op.ObjectCount)
		return nil

	case op.Status == domain.BulkCompleted:
		return w.completeBulk(ctx, job, conn, p, op)

	default:
		err := fmt.Errorf("bulk operation %s", op.Status)
		if op.ErrorCode != "" {
			err = fmt.Errorf("bulk operation %s: %s", op.Status, op.ErrorCode)
		}
		logger.Warn("bulk operation ended without results", "status", op.Status, "error_code", op.ErrorCode)
		w.failBulk(ctx, conn, p.Metadata.ETLJobID, p.Repair(), err)
		return nil
	}
}

func (w *Worker) completeBulk(ctx context.Context, job *queue.Job, conn *domain.Connection, p PollBulkPayload, op *domain.BulkOperation) error {
	logger := w.logger.With("brand_id", conn.BrandID, "entity", p.Entity, "etl_job_id", p.Metadata.ETLJobID)

	entry, err := w.ledger.Get(ctx, p.Metadata.ETLJobID)
	if err != nil {
		return fmt.Errorf("load bulk ledger entry: %w", err)
	}
	if entry.Status.Terminal() {
		return w.resumeChain(ctx, job, conn, p, entry)
	}

	var rows int64
	if op.ResultURL != "" {
		result, err := w.processor.DownloadAndProcess(ctx, target(conn), op.ResultURL, p.Entity)
		if err != nil {
			return w.bulkFailure(ctx, job, conn, p.Metadata.ETLJobID, p.Repair(), fmt.Errorf("process results: %w", err))
		}
		rows = result.Total()
	}

	err = w.ledger.Update(ctx, p.Metadata.ETLJobID, domain.ETLJobUpdate{
		Status:      domain.StatusPtr(domain.JobCompleted),
		RowsWritten: &rows,
		TotalRows:   &op.ObjectCount,
		ProgressPct: intPtr(100),
	})
	if errors.Is(err, domain.ErrInvalidTransition) {
		// Another delivery of this poll finalized the entry first.
		entry, err := w.ledger.Get(ctx, p.Metadata.ETLJobID)
		if err != nil {
			return fmt.Errorf("load bulk ledger entry: %w", err)
		}
		return w.resumeChain(ctx, job, conn, p, entry)
	}
	if err != nil {
		return fmt.Errorf("complete bulk ledger entry: %w", err)
	}

	logger.Info("bulk export processed", "rows", rows, "objects", op.ObjectCount)

	if p.Repair() {
		return nil
	}

	if next, ok := p.Entity.Next(); ok {
		if _, err := w.dispatcher.BulkSync(ctx, conn, next, queue.WithPriority(job.Priority)); err != nil {
			return err
		}
	} else if err := w.publisher.PublishInventoryReconcile(ctx, conn.BrandID, conn.ID, p.Metadata.ETLJobID); err != nil {
		logger.Warn("inventory reconciliation trigger failed", "error", err)
	}

	w.refreshStatus(ctx, conn)
	return nil
}

// resumeChain handles a poll whose ledger entry is already final. The next
// stage is dispatched only when no bulk_sync entry for it was created after
// entry, so a redelivered poll never starts a stage twice.
func (w *Worker) resumeChain(ctx context.Context, job *queue.Job, conn *domain.Connection, p PollBulkPayload, entry *domain.ETLJob) error {
	logger := w.logger.With("brand_id", conn.BrandID, "entity", p.Entity, "etl_job_id", entry.ID, "status", entry.Status)

	if entry.Status != domain.JobCompleted || p.Repair() {
		logger.Info("ledger entry already final, nothing to resume")
		return nil
	}

	next, ok := p.Entity.Next()
	if !ok {
		logger.Info("ledger entry already final, sync chain done")
		w.refreshStatus(ctx, conn)
		return nil
	}

	jobs, err := w.ledger.ListLatestByConnection(ctx, conn.ID)
	if err != nil {
		return fmt.Errorf("list ledger entries: %w", err)
	}
	for _, j := range jobs {
		if j.JobType == domain.JobTypeBulkSync && j.Entity == next && !j.CreatedAt.Before(entry.CreatedAt) {
			logger.Info("next stage already dispatched", "next_etl_job_id", j.ID)
			return nil
		}
	}

	logger.Warn("resuming sync chain", "next", next)
	if _, err := w.dispatcher.BulkSync(ctx, conn, next, queue.WithPriority(job.Priority)); err != nil {
		return err
	}
	w.refreshStatus(ctx, conn)
	return nil
}

// bulkFailure returns err to the queue for retry, failing the ledger entry
// first when this was the last attempt.
func (w *Worker) bulkFailure(ctx context.Context, job *queue.Job, conn *domain.Connection, etlID string, repair bool, err error) error {
	if ctx.Err() != nil {
		return err
	}
	if job.FinalAttempt() || errors.Is(err, queue.ErrUnrecoverable) {
		w.failBulk(ctx, conn, etlID, repair, err)
	}
	return err
}

func (w *Worker) failBulk(ctx context.Context, conn *domain.Connection, etlID string, repair bool, cause error) {
	w.failEntry(ctx, etlID, cause)
	if !repair {
		w.refreshStatus(ctx, conn)
	}
}

func (w *Worker) failEntry(ctx context.Context, etlID string, cause error) {
	if etlID == "" {
		return
	}
	msg := cause.Error()
	err := w.ledger.Update(ctx, etlID, domain.ETLJobUpdate{
		Status:       domain.StatusPtr(domain.JobFailed),
		ErrorMessage: &msg,
	})
	if err != nil {
		w.logger.Error("mark ledger entry failed", "etl_job_id", etlID, "error", err)
	}
}

// refreshStatus recomputes the connection's aggregate status from its latest
// ledger entries and persists it when it changed.
func (w *Worker) refreshStatus(ctx context.Context, conn *domain.Connection) {
	logger := w.logger.With("connection_id", conn.ID)

	jobs, err := w.ledger.ListLatestByConnection(ctx, conn.ID)
	if err != nil {
		logger.Error("list ledger entries", "error", err)
		return
	}

	status := domain.ComputeSyncStatus(conn.ID, conn.SyncStatus, jobs)
	if status.OverallStatus != conn.SyncStatus {
		if err := w.conns.SetSyncStatus(ctx, conn.ID, status.OverallStatus); err != nil {
			logger.Error("persist sync status", "error", err)
			return
		}
		logger.Info("sync status changed",
			"from", conn.SyncStatus,
			"to", status.OverallStatus,
			"progress_pct", status.ProgressPct,
		)
		conn.SyncStatus = status.OverallStatus
	}

	if err := w.publisher.PublishSyncStatus(ctx, status); err != nil {
		logger.Warn("publish sync status", "error", err)
	}
}

func intPtr(i int) *int { return &i }
