package domain

import "time"

type BulkStatus string

const (
	BulkCreated   BulkStatus = "created"
	BulkRunning   BulkStatus = "running"
	BulkCanceling BulkStatus = "canceling"
	BulkCompleted BulkStatus = "completed"
	BulkFailed    BulkStatus = "failed"
	BulkCanceled  BulkStatus = "canceled"
	BulkExpired   BulkStatus = "expired"
)

func (s BulkStatus) Terminal() bool {
	switch s {
	case BulkCompleted, BulkFailed, BulkCanceled, BulkExpired:
		return true
	}
	return false
}

// BulkOperation is the platform's handle for an asynchronous export. It is
// owned by the platform; this service only observes it.
type BulkOperation struct {
	ID               string
	Status           BulkStatus
	ErrorCode        string
	ResultURL        string
	PartialResultURL string
	ObjectCount      int64
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// Credentials identify a shop on the platform.
type Credentials struct {
	ShopDomain  string
	AccessToken string
}
