package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsOnStop(t *testing.T) {
	var processed int32
	q := NewQueue("audit", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 10})
	q.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "test"}))
	}
	q.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&processed))
	assert.Error(t, q.Enqueue(Job{ID: "late"}))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("audit", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "job"}))
}

func TestQueueFullDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("audit", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	// the worker may or may not have picked up the first job yet
	var full error
	for i := 0; i < 3 && full == nil; i++ {
		full = q.Enqueue(Job{ID: "n"})
	}
	assert.True(t, errors.Is(full, ErrQueueFull))

	close(release)
	q.Stop()
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("audit", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "retry"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}
