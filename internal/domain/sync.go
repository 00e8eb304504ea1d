package domain

import "time"

// Milestone is the state of one bulk stage in the status view.
type Milestone struct {
	Entity Entity    `json:"entity"`
	Status JobStatus `json:"status"`
}

type SyncStatus struct {
	ConnectionID  string        `json:"connection_id"`
	OverallStatus OverallStatus `json:"overall_status"`
	Milestones    []Milestone   `json:"milestones"`
	ProgressPct   int           `json:"progress_pct"`
}

// ComputeSyncStatus aggregates the latest full-sync ledger entries of a
// connection. jobs may contain older entries; the most recently created entry
// per entity wins. An entry created before the entry of the preceding entity
// belongs to an earlier run, so it and every later milestone count as
// pending. current is returned unchanged when neither every milestone
// completed nor any failed.
func ComputeSyncStatus(connectionID string, current OverallStatus, jobs []ETLJob) SyncStatus {
	latest := make(map[Entity]ETLJob)
	for _, j := range jobs {
		if j.JobType != JobTypeBulkSync {
			continue
		}
		prev, ok := latest[j.Entity]
		if !ok || j.CreatedAt.After(prev.CreatedAt) {
			latest[j.Entity] = j
		}
	}

	status := SyncStatus{
		ConnectionID:  connectionID,
		OverallStatus: current,
		Milestones:    make([]Milestone, 0, len(BulkSequence)),
	}
	if status.OverallStatus == "" {
		status.OverallStatus = SyncNotStarted
	}

	completed, failed := 0, false
	var anchor time.Time
	earlierRun := false
	for i, e := range BulkSequence {
		m := Milestone{Entity: e, Status: JobPending}
		j, ok := latest[e]
		if !ok || (i > 0 && j.CreatedAt.Before(anchor)) {
			earlierRun = true
		}
		if !earlierRun {
			m.Status = j.Status
			anchor = j.CreatedAt
		}
		switch m.Status {
		case JobCompleted:
			completed++
		case JobFailed:
			failed = true
		}
		status.Milestones = append(status.Milestones, m)
	}

	status.ProgressPct = completed * 100 / len(BulkSequence)
	switch {
	case failed:
		status.OverallStatus = SyncFailed
	case completed == len(BulkSequence):
		status.OverallStatus = SyncCompleted
	}
	return status
}
