package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobPending, JobRunning, true},
		{JobPending, JobCompleted, true},
		{JobPending, JobFailed, true},
		{JobRunning, JobRunning, true},
		{JobRunning, JobCompleted, true},
		{JobRunning, JobFailed, true},
		{JobRunning, JobPending, false},
		{JobCompleted, JobRunning, false},
		{JobCompleted, JobFailed, false},
		{JobCompleted, JobCompleted, false},
		{JobFailed, JobCompleted, false},
		{JobPending, JobStatus("paused"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestEntity_Next(t *testing.T) {
	next, ok := EntityOrders.Next()
	assert.True(t, ok)
	assert.Equal(t, EntityCustomers, next)

	next, ok = EntityCustomers.Next()
	assert.True(t, ok)
	assert.Equal(t, EntityProducts, next)

	_, ok = EntityProducts.Next()
	assert.False(t, ok)

	_, ok = EntityRecent.Next()
	assert.False(t, ok)
}

func TestEntity_Valid(t *testing.T) {
	assert.True(t, EntityOrders.Valid())
	assert.True(t, EntityRecent.Valid())
	assert.False(t, Entity("inventory").Valid())
}
