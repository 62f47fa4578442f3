// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"interview-coach/domain"
	"interview-coach/infrastructure"
)

// DB opens a private in-memory sqlite database with the schema migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := infrastructure.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Logger returns a logger that records entries instead of printing them.
func Logger(tb testing.TB) (*logrus.Logger, *logtest.Hook) {
	tb.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func SeedInterview(tb testing.TB, ctx context.Context, db *gorm.DB, userID string) *domain.Interview {
	tb.Helper()
	interview := &domain.Interview{
		ID:        uuid.NewString(),
		Role:      "Backend Engineer",
		Type:      "technical",
		Level:     "senior",
		TechStack: []string{"Go", "MySQL"},
		Questions: []string{"Tell me about yourself"},
		UserID:    userID,
		Finalized: true,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(interview).Error; err != nil {
		tb.Fatalf("seed interview: %v", err)
	}
	return interview
}

// SampleScore is a valid completed score.
func SampleScore() domain.Score {
	return domain.Score{
		TotalScore: 78,
		CategoryScores: []domain.CategoryScore{
			{Name: "Communication Skills", Score: 82, Comment: "Clear and structured."},
			{Name: "Technical Knowledge", Score: 75, Comment: "Solid fundamentals."},
			{Name: "Problem-Solving", Score: 74, Comment: "Reasonable approach."},
			{Name: "Cultural & Role Fit", Score: 80, Comment: "Good alignment."},
			{Name: "Confidence & Clarity", Score: 79, Comment: "Confident delivery."},
		},
		Strengths:           []string{"clear communication"},
		AreasForImprovement: []string{"deeper system design detail"},
		FinalAssessment:     "Solid overall.",
	}
}

func SampleTranscript() domain.Transcript {
	return domain.Transcript{
		{Role: domain.RoleAssistant, Content: "Tell me about yourself"},
		{Role: domain.RoleUser, Content: "I am a backend engineer..."},
	}
}
