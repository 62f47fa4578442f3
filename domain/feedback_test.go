package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackStatusTransitions(t *testing.T) {
	assert.True(t, StatusProcessing.CanTransition(StatusCompleted))
	assert.True(t, StatusProcessing.CanTransition(StatusError))
	assert.False(t, StatusProcessing.CanTransition(StatusProcessing))
	assert.False(t, StatusCompleted.CanTransition(StatusError))
	assert.False(t, StatusCompleted.CanTransition(StatusProcessing))
	assert.False(t, StatusError.CanTransition(StatusCompleted))

	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, FeedbackStatus("queued").Valid())
}

func validScore() Score {
	cats := make([]CategoryScore, 0, len(FeedbackCategories))
	for _, name := range FeedbackCategories {
		cats = append(cats, CategoryScore{Name: name, Score: 70, Comment: "ok"})
	}
	return Score{TotalScore: 70, CategoryScores: cats, FinalAssessment: "fine"}
}

func TestScoreValidate(t *testing.T) {
	s := validScore()
	require.NoError(t, s.Validate())

	tests := []struct {
		name   string
		mutate func(*Score)
	}{
		{"total above range", func(s *Score) { s.TotalScore = 101 }},
		{"total below range", func(s *Score) { s.TotalScore = -1 }},
		{"missing category", func(s *Score) { s.CategoryScores = s.CategoryScores[:4] }},
		{"category out of range", func(s *Score) { s.CategoryScores[2].Score = 250 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScore()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidScore)
		})
	}

	var nilScore *Score
	assert.ErrorIs(t, nilScore.Validate(), ErrInvalidScore)
}

func TestApplyScoreFillsCompletedShape(t *testing.T) {
	f := Feedback{Status: StatusProcessing, ErrorMessage: "old"}
	f.ApplyScore(validScore())

	assert.Equal(t, StatusCompleted, f.Status)
	require.NotNil(t, f.TotalScore)
	assert.Equal(t, 70, *f.TotalScore)
	assert.Len(t, f.CategoryScores, 5)
	assert.Empty(t, f.ErrorMessage)
}

func TestTranscriptFormat(t *testing.T) {
	tr := Transcript{
		{Role: RoleAssistant, Content: "Tell me about yourself"},
		{Role: RoleUser, Content: "I am a backend engineer..."},
	}
	require.NoError(t, tr.Validate())
	assert.Equal(t, "- assistant: Tell me about yourself\n- user: I am a backend engineer...\n", tr.Format())
}

func TestTranscriptValidate(t *testing.T) {
	assert.ErrorIs(t, Transcript{}.Validate(), ErrInvalidTranscript)
	assert.ErrorIs(t, Transcript{{Role: "narrator", Content: "x"}}.Validate(), ErrInvalidTranscript)
}
