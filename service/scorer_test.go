package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach/domain"
)

type fakeLLM struct {
	reply string
	err   error
	last  domain.GenerateRequest
}

func (f *fakeLLM) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go: {\"a\":{\"b\":2}} hope it helps", `{"a":{"b":2}}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.in))
		})
	}
}

func TestLLMScorerParsesFencedJSON(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n" + `{
		"totalScore": 81,
		"categoryScores": [
			{"name": "Communication Skills", "score": 85, "comment": "ok"},
			{"name": "Technical Knowledge", "score": 80, "comment": "ok"},
			{"name": "Problem-Solving", "score": 79, "comment": "ok"},
			{"name": "Cultural & Role Fit", "score": 82, "comment": "ok"},
			{"name": "Confidence & Clarity", "score": 78, "comment": "ok"}
		],
		"strengths": ["focus"],
		"areasForImprovement": ["depth"],
		"finalAssessment": "Good."
	}` + "\n```"}

	score, err := NewLLMScorer(llm).Score(context.Background(), "- user: hi\n")
	require.NoError(t, err)
	assert.Equal(t, 81, score.TotalScore)
	assert.Len(t, score.CategoryScores, 5)
	assert.Equal(t, []string{"focus"}, score.Strengths)
	assert.NoError(t, score.Validate())

	assert.True(t, llm.last.JSON)
	assert.NotEmpty(t, llm.last.System)
	assert.Contains(t, llm.last.Prompt, "- user: hi\n")
}

func TestLLMScorerErrors(t *testing.T) {
	_, err := NewLLMScorer(&fakeLLM{err: errors.New("rate limited")}).Score(context.Background(), "")
	assert.EqualError(t, err, "rate limited")

	_, err = NewLLMScorer(&fakeLLM{reply: "I cannot score this"}).Score(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON")
}
