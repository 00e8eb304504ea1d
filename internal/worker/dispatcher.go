package worker

import (
	"context"
	"fmt"

	"commerce_sync/internal/domain"
	"commerce_sync/internal/queue"
)

// Dispatcher opens ledger entries and enqueues the jobs that fill them.
type Dispatcher struct {
	queue  Enqueuer
	ledger Ledger
}

func NewDispatcher(q Enqueuer, ledger Ledger) *Dispatcher {
	return &Dispatcher{queue: q, ledger: ledger}
}

// RecentSync enqueues the entry point of a full sync.
func (d *Dispatcher) RecentSync(ctx context.Context, conn *domain.Connection) (*queue.Job, error) {
	job, err := d.queue.Enqueue(ctx, JobRecentSync, RecentSyncPayload{
		ConnectionID: conn.ID,
		BrandID:      conn.BrandID,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue recent sync: %w", err)
	}
	return job, nil
}

// BulkSync opens a bulk_sync entry for entity and enqueues its export.
func (d *Dispatcher) BulkSync(ctx context.Context, conn *domain.Connection, entity domain.Entity, opts ...queue.Option) (string, error) {
	return d.bulk(ctx, conn, entity, nil, domain.JobTypeBulkSync, opts...)
}

// BulkRepair opens a bulk_repair entry and enqueues an orders export limited
// to rng.
func (d *Dispatcher) BulkRepair(ctx context.Context, conn *domain.Connection, rng domain.DateRange, opts ...queue.Option) (string, error) {
	return d.bulk(ctx, conn, domain.EntityOrders, &rng, domain.JobTypeBulkRepair, opts...)
}

func (d *Dispatcher) bulk(ctx context.Context, conn *domain.Connection, entity domain.Entity, rng *domain.DateRange, jobType string, opts ...queue.Option) (string, error) {
	id, err := d.ledger.Create(ctx, domain.NewETLJob{
		BrandID:      conn.BrandID,
		ConnectionID: conn.ID,
		Entity:       entity,
		JobType:      jobType,
		Range:        rng,
	})
	if err != nil {
		return "", fmt.Errorf("create %s ledger entry: %w", jobType, err)
	}

	_, err = d.queue.Enqueue(ctx, JobBulkSync, BulkSyncPayload{
		ConnectionID: conn.ID,
		BrandID:      conn.BrandID,
		Entity:       entity,
		Range:        rng,
		Metadata:     Metadata{ETLJobID: id},
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue bulk %s: %w", entity, err)
	}
	return id, nil
}

// RangeRefresh opens a range_refresh entry and enqueues a narrow order
// refresh for rng.
func (d *Dispatcher) RangeRefresh(ctx context.Context, conn *domain.Connection, rng domain.DateRange, opts ...queue.Option) (string, error) {
	id, err := d.ledger.Create(ctx, domain.NewETLJob{
		BrandID:      conn.BrandID,
		ConnectionID: conn.ID,
		Entity:       domain.EntityOrders,
		JobType:      domain.JobTypeRangeRefresh,
		Range:        &rng,
	})
	if err != nil {
		return "", fmt.Errorf("create range refresh ledger entry: %w", err)
	}

	_, err = d.queue.Enqueue(ctx, JobRecentSync, RecentSyncPayload{
		ConnectionID: conn.ID,
		BrandID:      conn.BrandID,
		Range:        &rng,
		Metadata:     Metadata{ETLJobID: id},
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue range refresh: %w", err)
	}
	return id, nil
}
