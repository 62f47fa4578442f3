package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"interview-coach/domain"
)

const staleFeedbackMessage = "feedback generation timed out"

// StaleSweeper periodically fails feedback jobs that have been processing for
// longer than staleAfter, e.g. because the worker running them died.
type StaleSweeper struct {
	cron       *cron.Cron
	store      domain.FeedbackStore
	staleAfter time.Duration
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewStaleSweeper(store domain.FeedbackStore, staleAfter time.Duration, log logrus.FieldLogger) *StaleSweeper {
	return &StaleSweeper{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		store:      store,
		staleAfter: staleAfter,
		log:        log,
		now:        time.Now,
	}
}

func (s *StaleSweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.log.WithError(err).Error("stale feedback sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule stale sweeper %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.WithField("schedule", schedule).Info("stale feedback sweeper started")
	return nil
}

// Sweep runs one pass and returns the number of records moved to error.
func (s *StaleSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.staleAfter)
	n, err := s.store.FailStale(ctx, cutoff, staleFeedbackMessage)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.WithField("count", n).Warn("timed out stale feedback jobs")
	}
	return n, nil
}

// Stop waits for a running sweep to finish.
func (s *StaleSweeper) Stop() {
	<-s.cron.Stop().Done()
}
