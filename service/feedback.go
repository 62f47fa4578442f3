package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"interview-coach/domain"
)

var tracer = otel.Tracer("interview-coach/service")

// feedbackNamespace seeds deterministic feedback ids.
var feedbackNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("interview-coach/feedback"))

const terminalWriteTimeout = 10 * time.Second

// FeedbackIDFor is the id a submission for the pair gets when deterministic
// ids are enabled.
func FeedbackIDFor(interviewID, userID string) string {
	return uuid.NewSHA1(feedbackNamespace, []byte(interviewID+"\x00"+userID)).String()
}

type SubmitRequest struct {
	InterviewID string
	UserID      string
	Transcript  domain.Transcript
	// FeedbackID, when set, overwrites that record instead of creating one.
	FeedbackID string
}

type JobManagerOptions struct {
	DeterministicIDs bool
	Now              func() time.Time
}

// JobManager creates feedback records and hands them to the dispatcher.
type JobManager struct {
	feedback      domain.FeedbackStore
	interviews    domain.InterviewStore
	dispatcher    domain.Dispatcher
	cache         domain.StatusCache
	log           logrus.FieldLogger
	deterministic bool
	now           func() time.Time
}

// NewJobManager wires a job manager; cache may be nil.
func NewJobManager(
	feedback domain.FeedbackStore,
	interviews domain.InterviewStore,
	dispatcher domain.Dispatcher,
	cache domain.StatusCache,
	log logrus.FieldLogger,
	opts JobManagerOptions,
) *JobManager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JobManager{
		feedback:      feedback,
		interviews:    interviews,
		dispatcher:    dispatcher,
		cache:         cache,
		log:           log,
		deterministic: opts.DeterministicIDs,
		now:           now,
	}
}

// Submit stores a processing record and schedules its finalizer. It returns
// as soon as the record is durable; scoring happens later.
func (m *JobManager) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "feedback.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("interview.id", req.InterviewID),
		attribute.String("user.id", req.UserID),
	)

	if req.InterviewID == "" || req.UserID == "" {
		return "", fmt.Errorf("%w: interviewId and userId are required", domain.ErrInvalidRequest)
	}
	if err := req.Transcript.Validate(); err != nil {
		return "", err
	}
	if _, err := m.interviews.Get(ctx, req.InterviewID); err != nil {
		if errors.Is(err, domain.ErrInterviewNotFound) {
			return "", err
		}
		return "", m.submissionFailed(span, err)
	}

	record := &domain.Feedback{
		ID:          m.resolveID(req),
		InterviewID: req.InterviewID,
		UserID:      req.UserID,
		Status:      domain.StatusProcessing,
		JobToken:    uuid.NewString(),
		CreatedAt:   m.now().UTC(),
	}
	entry := m.log.WithFields(logrus.Fields{
		"feedback_id":  record.ID,
		"interview_id": record.InterviewID,
		"user_id":      record.UserID,
	})
	// The cache learns the new attempt before the row changes, so a read of
	// the previous row that finishes late can no longer be cached.
	if m.cache != nil {
		if err := m.cache.StartAttempt(ctx, record.InterviewID, record.UserID, record.JobToken); err != nil {
			entry.WithError(err).Error("failed to reset feedback cache")
			return "", m.submissionFailed(span, err)
		}
	}
	if err := m.feedback.Begin(ctx, record); err != nil {
		entry.WithError(err).Error("failed to create feedback record")
		return "", m.submissionFailed(span, err)
	}

	task := domain.FinalizeTask{
		FeedbackID:  record.ID,
		JobToken:    record.JobToken,
		InterviewID: record.InterviewID,
		UserID:      record.UserID,
		Transcript:  req.Transcript,
	}
	if err := m.dispatcher.Dispatch(ctx, task); err != nil {
		entry.WithError(err).Error("failed to schedule feedback generation")
		msg := fmt.Sprintf("failed to schedule feedback generation: %v", err)
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
		defer cancel()
		if ferr := m.feedback.Fail(writeCtx, record.ID, record.JobToken, msg); ferr != nil {
			entry.WithError(ferr).Error("failed to record scheduling failure")
		}
		return "", m.submissionFailed(span, err)
	}

	entry.Info("feedback job submitted")
	span.SetAttributes(attribute.String("feedback.id", record.ID))
	return record.ID, nil
}

func (m *JobManager) resolveID(req SubmitRequest) string {
	switch {
	case req.FeedbackID != "":
		return req.FeedbackID
	case m.deterministic:
		return FeedbackIDFor(req.InterviewID, req.UserID)
	default:
		return uuid.NewString()
	}
}

func (m *JobManager) submissionFailed(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "submission failed")
	return &domain.SubmissionError{Cause: err}
}

// Finalizer scores one attempt and writes its terminal status. Every path
// through Run ends in a store write or a logged write failure.
type Finalizer struct {
	store   domain.FeedbackStore
	scorer  domain.Scorer
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewFinalizer(store domain.FeedbackStore, scorer domain.Scorer, timeout time.Duration, log logrus.FieldLogger) *Finalizer {
	return &Finalizer{store: store, scorer: scorer, timeout: timeout, log: log}
}

func (f *Finalizer) Run(ctx context.Context, task domain.FinalizeTask) {
	ctx, span := tracer.Start(ctx, "feedback.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("feedback.id", task.FeedbackID))

	entry := f.log.WithFields(logrus.Fields{
		"feedback_id":  task.FeedbackID,
		"interview_id": task.InterviewID,
		"user_id":      task.UserID,
	})
	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", fmt.Sprint(r)).Error("feedback finalizer panicked")
			f.fail(ctx, entry, task, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// A task can reach Run after its worker pool shut down; record that
	// instead of leaving the row processing.
	if err := ctx.Err(); err != nil {
		entry.WithError(err).Warn("feedback job cancelled before scoring")
		f.fail(ctx, entry, task, fmt.Sprintf("feedback generation cancelled: %v", err))
		return
	}
	if err := f.store.Start(ctx, task.FeedbackID, task.JobToken); err != nil {
		if errors.Is(err, domain.ErrStaleAttempt) {
			entry.Info("skipping superseded feedback attempt")
			return
		}
		entry.WithError(err).Warn("failed to mark feedback attempt started")
	}

	started := time.Now()
	score, err := f.score(ctx, task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		entry.WithError(err).Warn("feedback scoring failed")
		f.fail(ctx, entry, task, err.Error())
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	if err := f.store.Complete(writeCtx, task.FeedbackID, task.JobToken, *score); err != nil {
		if errors.Is(err, domain.ErrStaleAttempt) {
			entry.Warn("discarding score for superseded feedback attempt")
			return
		}
		entry.WithError(err).Error("failed to store feedback score")
		f.fail(ctx, entry, task, fmt.Sprintf("failed to store feedback: %v", err))
		return
	}
	entry.WithFields(logrus.Fields{
		"total_score": score.TotalScore,
		"duration":    time.Since(started).String(),
	}).Info("feedback completed")
}

func (f *Finalizer) score(ctx context.Context, task domain.FinalizeTask) (*domain.Score, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	score, err := f.scorer.Score(ctx, task.Transcript.Format())
	if err != nil {
		return nil, err
	}
	if err := score.Validate(); err != nil {
		return nil, err
	}
	return score, nil
}

// fail records the error state. Nobody is left to report a failed write to,
// so it is logged and dropped.
func (f *Finalizer) fail(ctx context.Context, entry *logrus.Entry, task domain.FinalizeTask, message string) {
	if message == "" {
		message = "unknown error"
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	err := f.store.Fail(writeCtx, task.FeedbackID, task.JobToken, message)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStaleAttempt):
		entry.Warn("error state not recorded: feedback attempt superseded")
	default:
		entry.WithError(err).Error("failed to record feedback error state")
	}
}

// StatusReader resolves the current feedback record for an interview and user.
type StatusReader struct {
	feedback   domain.FeedbackStore
	interviews domain.InterviewStore
	cache      domain.StatusCache
}

// NewStatusReader wires a reader; cache may be nil.
func NewStatusReader(feedback domain.FeedbackStore, interviews domain.InterviewStore, cache domain.StatusCache) *StatusReader {
	return &StatusReader{feedback: feedback, interviews: interviews, cache: cache}
}

// Get returns domain.ErrFeedbackNotFound when nothing was submitted for the
// pair, which is not the same as a processing record.
func (r *StatusReader) Get(ctx context.Context, interviewID, userID string) (*domain.Feedback, error) {
	if r.cache != nil {
		if f, ok := r.cache.Get(ctx, interviewID, userID); ok {
			return f, nil
		}
	}
	f, err := r.feedback.FindByPair(ctx, interviewID, userID)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Put(ctx, f)
	}
	return f, nil
}

// View loads everything the feedback page needs and selects its state.
func (r *StatusReader) View(ctx context.Context, interviewID, userID string) domain.FeedbackView {
	interview, err := r.interviews.Get(ctx, interviewID)
	if errors.Is(err, domain.ErrInterviewNotFound) {
		return domain.SelectView(nil, nil, nil)
	}
	if err != nil {
		return domain.FeedbackView{
			State:   domain.ViewUnavailable,
			Message: "Failed to load feedback. Please try again later.",
		}
	}
	feedback, err := r.Get(ctx, interviewID, userID)
	return domain.SelectView(interview, feedback, err)
}
