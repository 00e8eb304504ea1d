package worker

import (
	"commerce_sync/internal/domain"
)

// Queue job types.
const (
	JobRecentSync = "recent-sync"
	JobBulkSync   = "bulk-sync"
	JobPollBulk   = "poll-bulk"
)

// Metadata travels with a job across requeues.
type Metadata struct {
	ETLJobID string `json:"etlJobId,omitempty"`
}

// RecentSyncPayload starts a sync for a connection. With Range set it
// refreshes orders created on those dates instead.
type RecentSyncPayload struct {
	ConnectionID string            `json:"connectionId"`
	BrandID      string            `json:"brandId"`
	Range        *domain.DateRange `json:"range,omitempty"`
	Metadata     Metadata          `json:"metadata"`
}

// BulkSyncPayload submits a bulk export. Range marks a repair export limited
// to orders created on those dates.
type BulkSyncPayload struct {
	ConnectionID string            `json:"connectionId"`
	BrandID      string            `json:"brandId"`
	Entity       domain.Entity     `json:"entity"`
	Range        *domain.DateRange `json:"range,omitempty"`
	Metadata     Metadata          `json:"metadata"`
}

func (p BulkSyncPayload) Repair() bool { return p.Range != nil }

type PollBulkPayload struct {
	ConnectionID    string            `json:"connectionId"`
	BrandID         string            `json:"brandId"`
	Entity          domain.Entity     `json:"entity"`
	BulkOperationID string            `json:"bulkOperationId"`
	Range           *domain.DateRange `json:"range,omitempty"`
	Metadata        Metadata          `json:"metadata"`
}

func (p PollBulkPayload) Repair() bool { return p.Range != nil }
