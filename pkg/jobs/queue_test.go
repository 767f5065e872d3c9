package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&processed, 1) == 3 {
			close(done)
		}
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "noop"}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not processed in time")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{Type: "noop"}))
}

func TestQueueEnqueueUniqueCoalesces(t *testing.T) {
	var mu sync.Mutex
	var runs int
	release := make(chan struct{})
	started := make(chan struct{}, 8)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})

	q.Start(context.Background())
	defer q.Stop()

	// First job occupies the worker; the key is released once it starts.
	require.NoError(t, q.EnqueueUnique(Job{Type: "recalc", Key: "class-1"}))
	<-started

	// A burst behind the busy worker collapses into one pending job.
	for i := 0; i < 5; i++ {
		require.NoError(t, q.EnqueueUnique(Job{Type: "recalc", Key: "class-1"}))
	}
	// A different key queues independently.
	require.NoError(t, q.EnqueueUnique(Job{Type: "recalc", Key: "class-2"}))

	close(release)

	deadline := time.After(2 * time.Second)
	for expected := 0; expected < 2; expected++ {
		select {
		case <-started:
		case <-deadline:
			t.Fatal("queued jobs did not start in time")
		}
	}

	// Give the final handlers a moment to account their runs.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return assert.AnError
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried in time")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}
