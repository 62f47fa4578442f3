package infrastructure_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach/domain"
	"interview-coach/infrastructure"
	"interview-coach/testutil"
)

func TestInProcessDispatcherDoesNotBlockCaller(t *testing.T) {
	log, _ := testutil.Logger(t)
	release := make(chan struct{})
	done := make(chan string, 1)
	d := infrastructure.NewInProcessDispatcher(func(ctx context.Context, task domain.FinalizeTask) {
		<-release
		done <- task.FeedbackID
	}, 1, log)

	start := time.Now()
	require.NoError(t, d.Dispatch(context.Background(), domain.FinalizeTask{FeedbackID: "fb-1"}))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	select {
	case id := <-done:
		assert.Equal(t, "fb-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("finalizer never ran")
	}
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestInProcessDispatcherOutlivesRequestContext(t *testing.T) {
	log, _ := testutil.Logger(t)
	started := make(chan struct{})
	result := make(chan error, 1)
	d := infrastructure.NewInProcessDispatcher(func(ctx context.Context, task domain.FinalizeTask) {
		<-started
		result <- ctx.Err()
	}, 2, log)

	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(reqCtx, domain.FinalizeTask{FeedbackID: "fb-1"}))
	cancel()
	close(started)

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("finalizer never ran")
	}
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestInProcessDispatcherBoundsConcurrency(t *testing.T) {
	log, _ := testutil.Logger(t)
	var running, peak atomic.Int32
	d := infrastructure.NewInProcessDispatcher(func(ctx context.Context, task domain.FinalizeTask) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
	}, 2, log)

	for i := 0; i < 8; i++ {
		require.NoError(t, d.Dispatch(context.Background(), domain.FinalizeTask{}))
	}
	require.NoError(t, d.Shutdown(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(0), running.Load())
}

func TestInProcessDispatcherShutdown(t *testing.T) {
	log, _ := testutil.Logger(t)
	var ran atomic.Bool
	d := infrastructure.NewInProcessDispatcher(func(ctx context.Context, task domain.FinalizeTask) {
		time.Sleep(30 * time.Millisecond)
		ran.Store(true)
	}, 1, log)

	require.NoError(t, d.Dispatch(context.Background(), domain.FinalizeTask{}))
	require.NoError(t, d.Shutdown(context.Background()))
	assert.True(t, ran.Load(), "shutdown returned before in-flight work finished")

	err := d.Dispatch(context.Background(), domain.FinalizeTask{})
	assert.ErrorIs(t, err, infrastructure.ErrDispatcherClosed)
}

func TestInProcessDispatcherShutdownDeadline(t *testing.T) {
	log, _ := testutil.Logger(t)
	cancelled := make(chan struct{})
	d := infrastructure.NewInProcessDispatcher(func(ctx context.Context, task domain.FinalizeTask) {
		<-ctx.Done()
		close(cancelled)
	}, 1, log)
	require.NoError(t, d.Dispatch(context.Background(), domain.FinalizeTask{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("running finalizer was not cancelled")
	}
}

func TestInProcessDispatcherRecoversPanic(t *testing.T) {
	log, hook := testutil.Logger(t)
	d := infrastructure.NewInProcessDispatcher(func(ctx context.Context, task domain.FinalizeTask) {
		panic("boom")
	}, 1, log)

	require.NoError(t, d.Dispatch(context.Background(), domain.FinalizeTask{FeedbackID: "fb-1"}))
	require.NoError(t, d.Shutdown(context.Background()))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "finalizer panicked", entry.Message)
	assert.Equal(t, "boom", entry.Data["panic"])
}

func TestInProcessDispatcherHandsQueuedTasksCancelled(t *testing.T) {
	log, _ := testutil.Logger(t)
	results := make(chan error, 2)
	d := infrastructure.NewInProcessDispatcher(func(ctx context.Context, task domain.FinalizeTask) {
		if task.FeedbackID == "running" {
			<-ctx.Done()
		}
		results <- ctx.Err()
	}, 1, log)

	require.NoError(t, d.Dispatch(context.Background(), domain.FinalizeTask{FeedbackID: "running"}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, d.Dispatch(context.Background(), domain.FinalizeTask{FeedbackID: "queued"}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)

	// Both tasks reached the handler before Shutdown returned.
	require.Len(t, results, 2)
	assert.ErrorIs(t, <-results, context.Canceled)
	assert.ErrorIs(t, <-results, context.Canceled)
}
