package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"interview-coach/domain"
)

// beginColumns are rewritten when a record starts a new processing attempt.
var beginColumns = []string{
	"interview_id", "user_id", "status", "job_token", "total_score",
	"category_scores", "strengths", "areas_for_improvement",
	"final_assessment", "error_message", "created_at", "updated_at",
}

type GormFeedbackStore struct {
	db *gorm.DB
}

var _ domain.FeedbackStore = (*GormFeedbackStore)(nil)

func NewGormFeedbackStore(db *gorm.DB) *GormFeedbackStore {
	return &GormFeedbackStore{db: db}
}

func (s *GormFeedbackStore) Begin(ctx context.Context, f *domain.Feedback) error {
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(beginColumns),
		}).
		Create(f).Error
	if err != nil {
		return fmt.Errorf("save feedback %s: %w", f.ID, err)
	}
	return nil
}

func (s *GormFeedbackStore) Complete(ctx context.Context, id, token string, score domain.Score) error {
	var f domain.Feedback
	f.ApplyScore(score)
	f.UpdatedAt = time.Now().UTC()
	return s.finish(ctx, id, token, &f,
		"status", "total_score", "category_scores", "strengths",
		"areas_for_improvement", "final_assessment", "error_message", "updated_at")
}

func (s *GormFeedbackStore) Fail(ctx context.Context, id, token, message string) error {
	f := domain.Feedback{
		Status:       domain.StatusError,
		ErrorMessage: message,
		UpdatedAt:    time.Now().UTC(),
	}
	return s.finish(ctx, id, token, &f, "status", "error_message", "updated_at")
}

// finish performs a terminal transition in a single conditional UPDATE so the
// status and its fields become visible together.
func (s *GormFeedbackStore) finish(ctx context.Context, id, token string, f *domain.Feedback, columns ...string) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("id = ? AND job_token = ? AND status = ?", id, token, domain.StatusProcessing).
		Select(columns).
		Updates(f)
	if res.Error != nil {
		return fmt.Errorf("update feedback %s to %s: %w", id, f.Status, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("feedback %s: %w", id, domain.ErrStaleAttempt)
	}
	return nil
}

// Start refreshes updated_at so the sweeper measures staleness from the
// moment a worker picked the attempt up, not from submission.
func (s *GormFeedbackStore) Start(ctx context.Context, id, token string) error {
	current := s.db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("id = ? AND job_token = ? AND status = ?", id, token, domain.StatusProcessing).
		Session(&gorm.Session{})
	res := current.Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("start feedback %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports unchanged rows as unaffected; tell those apart from a
	// superseded attempt.
	var n int64
	if err := current.Count(&n).Error; err != nil {
		return fmt.Errorf("start feedback %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("feedback %s: %w", id, domain.ErrStaleAttempt)
	}
	return nil
}

func (s *GormFeedbackStore) FindByPair(ctx context.Context, interviewID, userID string) (*domain.Feedback, error) {
	var f domain.Feedback
	err := s.db.WithContext(ctx).
		Where("interview_id = ? AND user_id = ?", interviewID, userID).
		Order("created_at ASC").
		Order("id ASC").
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrFeedbackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	return &f, nil
}

func (s *GormFeedbackStore) FailStale(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("status = ? AND updated_at < ?", domain.StatusProcessing, cutoff).
		Updates(map[string]any{
			"status":        domain.StatusError,
			"error_message": message,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("fail stale feedback: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type GormInterviewStore struct {
	db *gorm.DB
}

var _ domain.InterviewStore = (*GormInterviewStore)(nil)

func NewGormInterviewStore(db *gorm.DB) *GormInterviewStore {
	return &GormInterviewStore{db: db}
}

func (s *GormInterviewStore) Create(ctx context.Context, interview *domain.Interview) error {
	if err := s.db.WithContext(ctx).Create(interview).Error; err != nil {
		return fmt.Errorf("save interview: %w", err)
	}
	return nil
}

func (s *GormInterviewStore) Get(ctx context.Context, id string) (*domain.Interview, error) {
	var interview domain.Interview
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&interview).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load interview %s: %w", id, err)
	}
	return &interview, nil
}

func (s *GormInterviewStore) ListByUser(ctx context.Context, userID string) ([]domain.Interview, error) {
	var out []domain.Interview
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list interviews for user %s: %w", userID, err)
	}
	return out, nil
}

func (s *GormInterviewStore) ListLatest(ctx context.Context, excludeUserID string, limit int) ([]domain.Interview, error) {
	var out []domain.Interview
	err := s.db.WithContext(ctx).
		Where("finalized = ? AND user_id <> ?", true, excludeUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list latest interviews: %w", err)
	}
	return out, nil
}

type healthProbe struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (healthProbe) TableName() string { return "health_probes" }

// Ping writes and deletes a probe row to prove the store accepts writes.
func (s *GormInterviewStore) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		probe := healthProbe{CreatedAt: time.Now().UTC()}
		if err := tx.Create(&probe).Error; err != nil {
			return fmt.Errorf("write probe: %w", err)
		}
		if err := tx.Delete(&probe).Error; err != nil {
			return fmt.Errorf("delete probe: %w", err)
		}
		return nil
	})
}
