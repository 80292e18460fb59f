package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "refresh"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{BufferSize: 4})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.TryEnqueue(Job{Type: "refresh", Key: "refresh"}))
	<-started
	require.ErrorIs(t, q.TryEnqueue(Job{Type: "refresh", Key: "refresh"}), ErrDuplicate)
	close(release)

	require.Eventually(t, func() bool {
		return q.TryEnqueue(Job{Type: "refresh", Key: "refresh"}) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{Type: "refresh"}))
}

func TestQueueDropsAfterRetries(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error {
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "refresh", Key: "refresh"}))
	require.Eventually(t, func() bool {
		return q.Stats().Dropped == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int64(2), q.Stats().Failed)
}
