package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"interview-coach/domain"
)

type mockFeedbackStore struct {
	mock.Mock
	domain.FeedbackStore
}

func (m *mockFeedbackStore) FailStale(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	args := m.Called(ctx, cutoff, message)
	return args.Get(0).(int64), args.Error(1)
}

func TestStaleSweeperUsesCutoff(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	store := &mockFeedbackStore{}
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	store.On("FailStale", mock.Anything, now.Add(-10*time.Minute), staleFeedbackMessage).Return(int64(2), nil)

	s := NewStaleSweeper(store, 10*time.Minute, log)
	s.now = func() time.Time { return now }

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	store.AssertExpectations(t)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "timed out stale feedback jobs", hook.LastEntry().Message)
}

func TestStaleSweeperPropagatesStoreError(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	store := &mockFeedbackStore{}
	store.On("FailStale", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	_, err := NewStaleSweeper(store, time.Minute, log).Sweep(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestStaleSweeperRejectsBadSchedule(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	s := NewStaleSweeper(&mockFeedbackStore{}, time.Minute, log)
	assert.Error(t, s.Start("not a schedule"))
}
