package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	runs atomic.Int32
	err  error
}

func (c *countingTask) RunAll(context.Context) error {
	c.runs.Add(1)
	return c.err
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	task := &countingTask{err: errors.New("scan failed")}
	s := NewScheduler(task, 10*time.Millisecond, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return task.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestScheduler_DisabledWithZeroInterval(t *testing.T) {
	task := &countingTask{}
	s := NewScheduler(task, 0, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Start(ctx), context.DeadlineExceeded)
	assert.Zero(t, task.runs.Load())
}
