package domain

import (
	"context"
	"time"
)

// FeedbackStore persists feedback status records.
type FeedbackStore interface {
	// Begin creates or overwrites f as a fresh processing attempt.
	Begin(ctx context.Context, f *Feedback) error
	// Complete and Fail are conditional on the record still being the
	// processing attempt identified by token; otherwise ErrStaleAttempt.
	Complete(ctx context.Context, id, token string, score Score) error
	Fail(ctx context.Context, id, token, message string) error
	// Start marks the attempt as picked up by a worker. It returns
	// ErrStaleAttempt when the attempt is no longer the processing one.
	Start(ctx context.Context, id, token string) error
	FindByPair(ctx context.Context, interviewID, userID string) (*Feedback, error)
	// FailStale moves records with no activity since cutoff to error.
	FailStale(ctx context.Context, cutoff time.Time, message string) (int64, error)
}

type InterviewStore interface {
	Create(ctx context.Context, interview *Interview) error
	Get(ctx context.Context, id string) (*Interview, error)
	ListByUser(ctx context.Context, userID string) ([]Interview, error)
	ListLatest(ctx context.Context, excludeUserID string, limit int) ([]Interview, error)
	Ping(ctx context.Context) error
}

// Scorer turns a formatted transcript into a structured score.
type Scorer interface {
	Score(ctx context.Context, transcript string) (*Score, error)
}

type GenerateRequest struct {
	System string
	Prompt string
	// JSON asks the model for a bare JSON response.
	JSON bool
}

// LLM is a text generation backend.
type LLM interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// FinalizeTask is everything the finalizer needs to score one attempt.
type FinalizeTask struct {
	FeedbackID  string     `json:"feedback_id"`
	JobToken    string     `json:"job_token"`
	InterviewID string     `json:"interview_id"`
	UserID      string     `json:"user_id"`
	Transcript  Transcript `json:"transcript"`
}

type FinalizeFunc func(ctx context.Context, task FinalizeTask)

// Dispatcher schedules a finalizer outside of the caller's lifetime.
// Dispatch must not wait for the finalizer to run.
type Dispatcher interface {
	Dispatch(ctx context.Context, task FinalizeTask) error
}

// StatusCache holds terminal feedback records keyed by interview and user.
// Each pair remembers the token of its current attempt; Put drops records
// whose JobToken is not that token.
type StatusCache interface {
	Get(ctx context.Context, interviewID, userID string) (*Feedback, bool)
	Put(ctx context.Context, f *Feedback)
	// StartAttempt records token as the current attempt for the pair and
	// drops any cached record.
	StartAttempt(ctx context.Context, interviewID, userID, token string) error
}
