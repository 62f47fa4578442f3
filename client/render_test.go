package client

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"interview-coach/domain"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		view     domain.FeedbackView
		contains []string
	}{
		{"loading", domain.FeedbackView{State: domain.ViewLoading}, []string{"Loading feedback..."}},
		{"processing", domain.FeedbackView{State: domain.ViewProcessing}, []string{"still being generated"}},
		{"not found", domain.FeedbackView{State: domain.ViewNotFound, Message: "No feedback yet."}, []string{"No feedback yet."}},
		{"redirect", domain.FeedbackView{State: domain.ViewRedirect, RedirectTo: "/"}, []string{"returning to /"}},
		{
			"error",
			domain.FeedbackView{State: domain.ViewError, Feedback: &domain.Feedback{ErrorMessage: "rate limited"}},
			[]string{"error generating your feedback", "Reason: rate limited", "Retake the interview"},
		},
		{
			"completed",
			func() domain.FeedbackView {
				v := completedView()
				v.Feedback.CategoryScores = []domain.CategoryScore{{Name: "Communication Skills", Score: 82, Comment: "Clear."}}
				v.Feedback.Strengths = []string{"focus"}
				v.Feedback.AreasForImprovement = []string{"depth"}
				return v
			}(),
			[]string{
				"Backend Engineer Interview",
				"Overall Impression: 78/100",
				"1. Communication Skills (82/100)",
				"  - focus",
				"  - depth",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Render(&buf, tt.view)
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
