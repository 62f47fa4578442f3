package domain

import (
	"fmt"
	"time"
)

type FeedbackStatus string

const (
	StatusProcessing FeedbackStatus = "processing"
	StatusCompleted  FeedbackStatus = "completed"
	StatusError      FeedbackStatus = "error"
)

// Terminal reports whether no further transitions are allowed from s.
func (s FeedbackStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

func (s FeedbackStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// CanTransition allows only processing -> completed and processing -> error.
func (s FeedbackStatus) CanTransition(to FeedbackStatus) bool {
	return s == StatusProcessing && to.Terminal()
}

type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// FeedbackCategories is the display order of category scores.
var FeedbackCategories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem-Solving",
	"Cultural & Role Fit",
	"Confidence & Clarity",
}

// Feedback is the status record of one scoring job. Score fields are only
// meaningful when Status is completed, ErrorMessage only when it is error.
type Feedback struct {
	ID                  string          `gorm:"primaryKey;size:64" json:"id"`
	InterviewID         string          `gorm:"size:64;not null;index:idx_feedback_pair" json:"interviewId"`
	UserID              string          `gorm:"size:64;not null;index:idx_feedback_pair" json:"userId"`
	Status              FeedbackStatus  `gorm:"type:varchar(16);not null;index" json:"status"`
	JobToken            string          `gorm:"size:64;not null" json:"-"`
	TotalScore          *int            `json:"totalScore,omitempty"`
	CategoryScores      []CategoryScore `gorm:"type:text;serializer:json" json:"categoryScores,omitempty"`
	Strengths           []string        `gorm:"type:text;serializer:json" json:"strengths,omitempty"`
	AreasForImprovement []string        `gorm:"type:text;serializer:json" json:"areasForImprovement,omitempty"`
	FinalAssessment     string          `gorm:"type:text" json:"finalAssessment,omitempty"`
	ErrorMessage        string          `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"-"`
}

func (Feedback) TableName() string { return "feedback" }

// Score is the structured output of the scoring oracle.
type Score struct {
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
}

func (s *Score) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: empty score", ErrInvalidScore)
	}
	if s.TotalScore < 0 || s.TotalScore > 100 {
		return fmt.Errorf("%w: totalScore %d out of range", ErrInvalidScore, s.TotalScore)
	}
	if len(s.CategoryScores) != len(FeedbackCategories) {
		return fmt.Errorf("%w: expected %d category scores, got %d",
			ErrInvalidScore, len(FeedbackCategories), len(s.CategoryScores))
	}
	for _, c := range s.CategoryScores {
		if c.Score < 0 || c.Score > 100 {
			return fmt.Errorf("%w: category %q score %d out of range", ErrInvalidScore, c.Name, c.Score)
		}
	}
	return nil
}

// ApplyScore fills the completed shape of f from s.
func (f *Feedback) ApplyScore(s Score) {
	total := s.TotalScore
	f.Status = StatusCompleted
	f.TotalScore = &total
	f.CategoryScores = s.CategoryScores
	f.Strengths = s.Strengths
	f.AreasForImprovement = s.AreasForImprovement
	f.FinalAssessment = s.FinalAssessment
	f.ErrorMessage = ""
}
