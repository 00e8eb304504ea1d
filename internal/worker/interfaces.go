package worker

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"commerce_sync/internal/domain"
	"commerce_sync/internal/queue"
	"commerce_sync/internal/shopify"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload any, opts ...queue.Option) (*queue.Job, error)
	Requeue(ctx context.Context, job *queue.Job, delay time.Duration) (*queue.Job, error)
}

type Ledger interface {
	Create(ctx context.Context, job domain.NewETLJob) (string, error)
	Update(ctx context.Context, id string, upd domain.ETLJobUpdate) error
	Get(ctx context.Context, id string) (*domain.ETLJob, error)
	ListLatestByConnection(ctx context.Context, connectionID string) ([]domain.ETLJob, error)
}

type ConnectionStore interface {
	Get(ctx context.Context, id string) (*domain.Connection, error)
	SetSyncStatus(ctx context.Context, id string, status domain.OverallStatus) error
}

type BulkClient interface {
	CheckExisting(ctx context.Context, creds domain.Credentials) (*domain.BulkOperation, error)
	StartBulkExport(ctx context.Context, creds domain.Credentials, entity domain.Entity, filter shopify.ExportFilter) (*domain.BulkOperation, error)
	PollStatus(ctx context.Context, creds domain.Credentials, id string) (*domain.BulkOperation, error)
	CancelBulkOperation(ctx context.Context, creds domain.Credentials, id string) error
}

type ResultProcessor interface {
	DownloadAndProcess(ctx context.Context, target domain.FactTarget, url string, entity domain.Entity) (*shopify.Result, error)
	RefreshOrders(ctx context.Context, target domain.FactTarget, creds domain.Credentials, from, to time.Time) (int64, error)
}

type Publisher interface {
	PublishInventoryReconcile(ctx context.Context, brandID, connectionID, etlJobID string) error
	PublishSyncStatus(ctx context.Context, status domain.SyncStatus) error
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
