package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"interview-coach/domain"
)

const scoringSystemPrompt = "You are an efficient professional interviewer analyzing a mock interview. " +
	"Your task is to evaluate the candidate based on structured categories. Be concise but insightful."

const scoringPrompt = `You are an AI interviewer analyzing a mock interview. Evaluate the candidate concisely in these categories.
Transcript:
%s

Score the candidate from 0 to 100 in these areas only, in this order:
- **Communication Skills**: Clarity, articulation, structured responses.
- **Technical Knowledge**: Understanding of key concepts for the role.
- **Problem-Solving**: Ability to analyze problems and propose solutions.
- **Cultural & Role Fit**: Alignment with company values and job role.
- **Confidence & Clarity**: Confidence in responses, engagement, and clarity.

Return strict JSON with structure:
{
  "totalScore": integer,
  "categoryScores": [{"name": string, "score": integer, "comment": string}],
  "strengths": [string],
  "areasForImprovement": [string],
  "finalAssessment": string
}

Return ONLY the raw JSON without any markdown formatting, code blocks, or additional text.`

// LLMScorer is the scoring oracle backed by a text generation model.
type LLMScorer struct {
	llm domain.LLM
}

var _ domain.Scorer = (*LLMScorer)(nil)

func NewLLMScorer(llm domain.LLM) *LLMScorer {
	return &LLMScorer{llm: llm}
}

func (s *LLMScorer) Score(ctx context.Context, transcript string) (*domain.Score, error) {
	raw, err := s.llm.Generate(ctx, domain.GenerateRequest{
		System: scoringSystemPrompt,
		Prompt: fmt.Sprintf(scoringPrompt, transcript),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	cleaned := cleanJSONResponse(raw)
	var score domain.Score
	if err := json.Unmarshal([]byte(cleaned), &score); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w\nResponse: %s", err, cleaned)
	}
	return &score, nil
}

// cleanJSONResponse strips markdown fences and any prose around the outermost
// JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}
