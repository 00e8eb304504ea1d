package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bulkJob(entity Entity, status JobStatus, created time.Time) ETLJob {
	return ETLJob{Entity: entity, JobType: JobTypeBulkSync, Status: status, CreatedAt: created}
}

func TestComputeSyncStatus(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no entries", func(t *testing.T) {
		s := ComputeSyncStatus("c", "", nil)
		assert.Equal(t, SyncNotStarted, s.OverallStatus)
		assert.Zero(t, s.ProgressPct)
		require.Len(t, s.Milestones, 3)
		for _, m := range s.Milestones {
			assert.Equal(t, JobPending, m.Status)
		}
	})

	t.Run("partial keeps current", func(t *testing.T) {
		s := ComputeSyncStatus("c", SyncInProgress, []ETLJob{
			bulkJob(EntityOrders, JobCompleted, t0),
			bulkJob(EntityCustomers, JobRunning, t0.Add(time.Minute)),
		})
		assert.Equal(t, SyncInProgress, s.OverallStatus)
		assert.Equal(t, 33, s.ProgressPct)
	})

	t.Run("all complete", func(t *testing.T) {
		s := ComputeSyncStatus("c", SyncInProgress, []ETLJob{
			bulkJob(EntityOrders, JobCompleted, t0),
			bulkJob(EntityCustomers, JobCompleted, t0),
			bulkJob(EntityProducts, JobCompleted, t0),
		})
		assert.Equal(t, SyncCompleted, s.OverallStatus)
		assert.Equal(t, 100, s.ProgressPct)
	})

	t.Run("any failure", func(t *testing.T) {
		s := ComputeSyncStatus("c", SyncInProgress, []ETLJob{
			bulkJob(EntityOrders, JobCompleted, t0),
			bulkJob(EntityCustomers, JobFailed, t0),
		})
		assert.Equal(t, SyncFailed, s.OverallStatus)
	})

	t.Run("latest entry wins", func(t *testing.T) {
		s := ComputeSyncStatus("c", SyncFailed, []ETLJob{
			bulkJob(EntityOrders, JobFailed, t0),
			bulkJob(EntityOrders, JobCompleted, t0.Add(time.Hour)),
			bulkJob(EntityCustomers, JobCompleted, t0.Add(2*time.Hour)),
			bulkJob(EntityProducts, JobCompleted, t0.Add(3*time.Hour)),
		})
		assert.Equal(t, SyncCompleted, s.OverallStatus)
	})

	t.Run("earlier run ignored", func(t *testing.T) {
		s := ComputeSyncStatus("c", SyncInProgress, []ETLJob{
			bulkJob(EntityOrders, JobCompleted, t0),
			bulkJob(EntityCustomers, JobCompleted, t0.Add(time.Minute)),
			bulkJob(EntityProducts, JobFailed, t0.Add(2*time.Minute)),
			bulkJob(EntityOrders, JobCompleted, t0.Add(24*time.Hour)),
			bulkJob(EntityCustomers, JobPending, t0.Add(24*time.Hour+time.Minute)),
		})
		assert.Equal(t, SyncInProgress, s.OverallStatus)
		assert.Equal(t, 33, s.ProgressPct)
		assert.Equal(t, []Milestone{
			{Entity: EntityOrders, Status: JobCompleted},
			{Entity: EntityCustomers, Status: JobPending},
			{Entity: EntityProducts, Status: JobPending},
		}, s.Milestones)
	})

	t.Run("stale milestone after a fresh one", func(t *testing.T) {
		s := ComputeSyncStatus("c", SyncInProgress, []ETLJob{
			bulkJob(EntityCustomers, JobCompleted, t0),
			bulkJob(EntityProducts, JobCompleted, t0.Add(time.Minute)),
			bulkJob(EntityOrders, JobRunning, t0.Add(time.Hour)),
		})
		assert.Equal(t, SyncInProgress, s.OverallStatus)
		assert.Zero(t, s.ProgressPct)
	})

	t.Run("repairs ignored", func(t *testing.T) {
		s := ComputeSyncStatus("c", SyncCompleted, []ETLJob{
			{Entity: EntityOrders, JobType: JobTypeBulkRepair, Status: JobFailed, CreatedAt: t0},
		})
		assert.Equal(t, SyncCompleted, s.OverallStatus)
	})
}
