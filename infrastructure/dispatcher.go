package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"interview-coach/domain"
)

var ErrDispatcherClosed = errors.New("dispatcher is shut down")

const cancelGrace = 5 * time.Second

// InProcessDispatcher runs finalizers on goroutines owned by the process, not
// by the request that submitted them. At most `concurrency` run at once;
// extra tasks wait on the semaphore inside their own goroutine.
type InProcessDispatcher struct {
	handle domain.FinalizeFunc
	sem    *semaphore.Weighted
	log    logrus.FieldLogger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc
}

var _ domain.Dispatcher = (*InProcessDispatcher)(nil)

func NewInProcessDispatcher(handle domain.FinalizeFunc, concurrency int, log logrus.FieldLogger) *InProcessDispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &InProcessDispatcher{
		handle: handle,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		log:    log,
		base:   base,
		cancel: cancel,
	}
}

// Dispatch ignores ctx for the task itself: the finalizer must outlive the
// submitting request.
func (d *InProcessDispatcher) Dispatch(_ context.Context, task domain.FinalizeTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	go d.run(task)
	return nil
}

func (d *InProcessDispatcher) run(task domain.FinalizeTask) {
	defer d.wg.Done()
	entry := d.log.WithField("feedback_id", task.FeedbackID)

	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", fmt.Sprint(r)).Error("finalizer panicked")
		}
	}()

	// Shutdown gave up on queued tasks. The handler still runs, with the
	// cancelled context, so it can record the job's end.
	if err := d.sem.Acquire(d.base, 1); err != nil {
		entry.WithError(err).Warn("finalizer cancelled before start")
		d.handle(d.base, task)
		return
	}
	defer d.sem.Release(1)
	d.handle(d.base, task)
}

// Shutdown stops accepting tasks and waits for in-flight finalizers. When ctx
// expires first, the shared context is cancelled, queued tasks are handed to
// the handler already cancelled, and Shutdown returns ctx.Err.
func (d *InProcessDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		// Give cancelled handlers a moment to write their error state.
		select {
		case <-done:
		case <-time.After(cancelGrace):
		}
		return ctx.Err()
	}
}
