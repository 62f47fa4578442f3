package client

import (
	"context"
	"io"
	"sync"
	"time"

	"interview-coach/domain"
)

type ViewFetcher interface {
	FeedbackView(ctx context.Context, interviewID, userID string) (*domain.FeedbackView, error)
}

// Watcher is the observing view of a feedback page: it renders the current
// state, keeps a poller mounted while the state can still change, and tears
// the poller down once a terminal view has been shown.
type Watcher struct {
	Fetcher ViewFetcher
	Period  time.Duration
	Out     io.Writer
}

// Watch returns the last view it rendered. It returns ctx.Err() when the
// context ends before a terminal view.
func (w *Watcher) Watch(ctx context.Context, interviewID, userID string) (domain.FeedbackView, error) {
	current := domain.FeedbackView{State: domain.ViewLoading}
	Render(w.Out, current)

	// latest holds only the newest view; publishers replace an unread one.
	latest := make(chan domain.FeedbackView, 1)
	var mu sync.Mutex
	publish := func() {
		v := w.load(ctx, interviewID, userID)
		mu.Lock()
		defer mu.Unlock()
		select {
		case <-latest:
		default:
		}
		latest <- v
	}

	poller := Mount(w.Period, publish)
	defer poller.Stop()

	publish()
	for {
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case v := <-latest:
			if changed(current, v) {
				Render(w.Out, v)
			}
			current = v
			if v.State.Terminal() {
				return current, nil
			}
		}
	}
}

func (w *Watcher) load(ctx context.Context, interviewID, userID string) domain.FeedbackView {
	v, err := w.Fetcher.FeedbackView(ctx, interviewID, userID)
	if err != nil {
		return domain.FeedbackView{
			State:   domain.ViewUnavailable,
			Message: "Failed to load feedback. Please try again later.",
		}
	}
	return *v
}

func changed(prev, next domain.FeedbackView) bool {
	return prev.State != next.State || prev.Message != next.Message
}
