package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled atomic.Int32
	q := NewQueue("test", func(_ context.Context, job Job) error {
		handled.Add(1)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "j", Type: "email"}))
	}

	assert.Eventually(t, func() bool { return handled.Load() == 5 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesThenDeadLetters(t *testing.T) {
	var attempts atomic.Int32
	var mu sync.Mutex
	var dead []Job

	q := NewQueue("test", func(_ context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("smtp down")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		DeadLetter: func(job Job, _ error) {
			mu.Lock()
			dead = append(dead, job)
			mu.Unlock()
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j-1", Type: "email"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(dead) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
	mu.Lock()
	assert.Equal(t, 3, dead[0].Attempt)
	mu.Unlock()
	assert.Equal(t, int64(0), q.Pending())
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(Job{ID: "early"}), ErrQueueStopped)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "late"}), ErrQueueStopped)
}
