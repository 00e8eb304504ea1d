package gaps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"commerce_sync/internal/domain"
	"commerce_sync/internal/queue"
)

type ConnectionStore interface {
	Get(ctx context.Context, id string) (*domain.Connection, error)
	List(ctx context.Context, platform string) ([]domain.Connection, error)
}

type LedgerReader interface {
	ListLatestByConnection(ctx context.Context, connectionID string) ([]domain.ETLJob, error)
}

// Dispatcher opens ledger entries and enqueues repair jobs.
type Dispatcher interface {
	BulkRepair(ctx context.Context, conn *domain.Connection, rng domain.DateRange, opts ...queue.Option) (string, error)
	RangeRefresh(ctx context.Context, conn *domain.Connection, rng domain.DateRange, opts ...queue.Option) (string, error)
}

type RemediatorConfig struct {
	LookbackDays     int
	DeepLookbackDays int
	Platform         string
}

type RunOptions struct {
	// Deep scans DeepLookbackDays instead of LookbackDays.
	Deep   bool
	DryRun bool
}

type Report struct {
	ConnectionID string              `json:"connection_id"`
	Window       domain.DateRange    `json:"window"`
	Gaps         *domain.GapReport   `json:"gaps"`
	Stale        *domain.StaleReport `json:"stale"`
	Decision     Decision            `json:"decision"`
	Repairs      []Repair            `json:"repairs"`

	// Skipped repairs wait for an earlier repair of the same kind to finish.
	Skipped []Repair `json:"skipped,omitempty"`
	ETLJobs []string `json:"etl_jobs"`
	DryRun  bool     `json:"dry_run"`
}

type Remediator struct {
	conns      ConnectionStore
	ledger     LedgerReader
	detector   *Detector
	dispatcher Dispatcher
	cfg        RemediatorConfig
	logger     *slog.Logger
}

func NewRemediator(
	conns ConnectionStore,
	ledger LedgerReader,
	detector *Detector,
	dispatcher Dispatcher,
	cfg RemediatorConfig,
	logger *slog.Logger,
) *Remediator {
	return &Remediator{
		conns:      conns,
		ledger:     ledger,
		detector:   detector,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With("component", "remediator"),
	}
}

// Run detects gaps and stale days for one connection and enqueues the
// planned repairs.
func (r *Remediator) Run(ctx context.Context, connectionID string, opts RunOptions) (*Report, error) {
	conn, err := r.conns.Get(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	return r.run(ctx, conn, opts)
}

func (r *Remediator) run(ctx context.Context, conn *domain.Connection, opts RunOptions) (*Report, error) {
	lookback := r.cfg.LookbackDays
	if opts.Deep {
		lookback = r.cfg.DeepLookbackDays
	}
	logger := r.logger.With("connection_id", conn.ID, "brand_id", conn.BrandID, "lookback_days", lookback)

	gapReport, staleReport, scan, err := r.detector.Detect(ctx, conn, lookback)
	if err != nil {
		return nil, err
	}

	decision := ShouldTriggerBackfill(gapReport.Gaps, staleReport.StaleDays)
	report := &Report{
		ConnectionID: conn.ID,
		Window:       scan.Window,
		Gaps:         gapReport,
		Stale:        staleReport,
		Decision:     decision,
		Repairs:      PlanRepairs(decision),
		ETLJobs:      []string{},
		DryRun:       opts.DryRun,
	}

	if !decision.ShouldBackfill {
		logger.Info("no gaps or stale days")
		return report, nil
	}

	logger.Info("backfill needed",
		"gaps", len(decision.CriticalGaps),
		"missing_days", gapReport.TotalMissingDays,
		"stale_days", len(decision.StaleDatesToRefresh),
		"dry_run", opts.DryRun,
	)
	if opts.DryRun {
		return report, nil
	}

	inFlight, err := r.inFlight(ctx, conn.ID)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, repair := range report.Repairs {
		if inFlight[repair.Kind] {
			report.Skipped = append(report.Skipped, repair)
			continue
		}
		id, err := r.enqueue(ctx, conn, repair)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report.ETLJobs = append(report.ETLJobs, id)
	}

	logger.Info("repairs enqueued", "enqueued", len(report.ETLJobs), "skipped", len(report.Skipped))
	return report, errors.Join(errs...)
}

func (r *Remediator) enqueue(ctx context.Context, conn *domain.Connection, repair Repair) (string, error) {
	switch repair.Kind {
	case RepairBulk:
		return r.dispatcher.BulkRepair(ctx, conn, repair.Range, queue.WithPriority(repair.Priority))
	case RepairRefresh:
		return r.dispatcher.RangeRefresh(ctx, conn, repair.Range, queue.WithPriority(repair.Priority))
	}
	return "", fmt.Errorf("unknown repair kind %q", repair.Kind)
}

// inFlight reports which repair kinds still have an open ledger entry.
func (r *Remediator) inFlight(ctx context.Context, connectionID string) (map[RepairKind]bool, error) {
	jobs, err := r.ledger.ListLatestByConnection(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	out := make(map[RepairKind]bool)
	for _, j := range jobs {
		if j.Status.Terminal() {
			continue
		}
		switch j.JobType {
		case domain.JobTypeBulkRepair:
			out[RepairBulk] = true
		case domain.JobTypeRangeRefresh:
			out[RepairRefresh] = true
		}
	}
	return out, nil
}

// RunAll scans every connection of the configured platform. A failing
// connection does not stop the others.
func (r *Remediator) RunAll(ctx context.Context) error {
	conns, err := r.conns.List(ctx, r.cfg.Platform)
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}

	var errs []error
	for i := range conns {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := r.run(ctx, &conns[i], RunOptions{}); err != nil {
			r.logger.Error("gap scan failed", "connection_id", conns[i].ID, "error", err)
			errs = append(errs, fmt.Errorf("connection %s: %w", conns[i].ID, err))
		}
	}
	return errors.Join(errs...)
}
