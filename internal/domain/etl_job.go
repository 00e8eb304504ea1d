package domain

import "time"

type Entity string

const (
	EntityOrders    Entity = "orders"
	EntityCustomers Entity = "customers"
	EntityProducts  Entity = "products"
	EntityRecent    Entity = "recent"
)

// BulkSequence is the fixed order in which full-history exports run for a
// connection. The platform accepts one bulk operation per shop at a time.
var BulkSequence = []Entity{EntityOrders, EntityCustomers, EntityProducts}

// Next returns the entity that follows e in BulkSequence.
func (e Entity) Next() (Entity, bool) {
	for i, s := range BulkSequence {
		if s == e && i+1 < len(BulkSequence) {
			return BulkSequence[i+1], true
		}
	}
	return "", false
}

func (e Entity) Valid() bool {
	switch e {
	case EntityOrders, EntityCustomers, EntityProducts, EntityRecent:
		return true
	}
	return false
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

func (s JobStatus) rank() int {
	switch s {
	case JobPending:
		return 0
	case JobRunning:
		return 1
	case JobCompleted, JobFailed:
		return 2
	}
	return -1
}

// CanTransition reports whether a ledger entry may move from s to next.
// Status only moves forward; terminal entries are never resurrected.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s.Terminal() || next.rank() < 0 {
		return false
	}
	return next.rank() >= s.rank()
}

// Ledger job types.
const (
	JobTypeRecentSync   = "recent_sync"
	JobTypeBulkSync     = "bulk_sync"
	JobTypeBulkRepair   = "bulk_repair"
	JobTypeRangeRefresh = "range_refresh"
)

type ETLJob struct {
	ID              string     `db:"id" json:"id"`
	BrandID         string     `db:"brand_id" json:"brand_id"`
	ConnectionID    string     `db:"connection_id" json:"connection_id"`
	Entity          Entity     `db:"entity" json:"entity"`
	JobType         string     `db:"job_type" json:"job_type"`
	Status          JobStatus  `db:"status" json:"status"`
	BulkOperationID *string    `db:"bulk_operation_id" json:"bulk_operation_id,omitempty"`
	RowsWritten     int64      `db:"rows_written" json:"rows_written"`
	TotalRows       int64      `db:"total_rows" json:"total_rows"`
	ProgressPct     int        `db:"progress_pct" json:"progress_pct"`
	ErrorMessage    *string    `db:"error_message" json:"error_message,omitempty"`
	RangeStart      *time.Time `db:"range_start" json:"range_start,omitempty"`
	RangeEnd        *time.Time `db:"range_end" json:"range_end,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	FailedAt        *time.Time `db:"failed_at" json:"failed_at,omitempty"`
}

// NewETLJob carries the fields needed to open a ledger entry.
type NewETLJob struct {
	BrandID      string
	ConnectionID string
	Entity       Entity
	JobType      string
	Range        *DateRange
}

// ETLJobUpdate is a partial update; nil fields are left untouched.
type ETLJobUpdate struct {
	Status          *JobStatus
	BulkOperationID *string
	RowsWritten     *int64
	TotalRows       *int64
	ProgressPct     *int
	ErrorMessage    *string
}

func StatusPtr(s JobStatus) *JobStatus { return &s }
