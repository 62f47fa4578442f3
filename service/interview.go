package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"interview-coach/domain"
)

const defaultLatestLimit = 20

const questionPrompt = `Prepare questions for a job interview.
The job role is %s.
The job experience level is %s.
The tech stack used in the job is: %s.
The focus between behavioural and technical questions should lean towards: %s.
The amount of questions required is: %s.
Please return only the questions, without any additional text.
The questions are going to be read by a voice assistant so do not use "/" or "*" or any other special characters which might break the voice assistant.
Return the questions formatted like this:
["Question 1", "Question 2", "Question 3"]`

var interviewCovers = []string{
	"/covers/adobe.png",
	"/covers/amazon.png",
	"/covers/facebook.png",
	"/covers/hostinger.png",
	"/covers/pinterest.png",
	"/covers/quora.png",
	"/covers/reddit.png",
	"/covers/skype.png",
	"/covers/spotify.png",
	"/covers/telegram.png",
	"/covers/tiktok.png",
	"/covers/yahoo.png",
}

type GenerateInterviewRequest struct {
	Type      string      `json:"type"`
	Role      string      `json:"role"`
	Level     string      `json:"level"`
	TechStack string      `json:"techstack"`
	Amount    json.Number `json:"amount"`
	UserID    string      `json:"userid"`
}

func (r GenerateInterviewRequest) missingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"type", r.Type},
		{"role", r.Role},
		{"level", r.Level},
		{"techstack", r.TechStack},
		{"amount", r.Amount.String()},
		{"userid", r.UserID},
	} {
		if strings.TrimSpace(f.value) == "" || f.value == "0" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// InterviewService creates interviews from generated questions and serves
// interview lookups.
type InterviewService struct {
	store domain.InterviewStore
	llm   domain.LLM
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewInterviewService(store domain.InterviewStore, llm domain.LLM, log logrus.FieldLogger) *InterviewService {
	return &InterviewService{store: store, llm: llm, log: log, now: time.Now}
}

func (s *InterviewService) Generate(ctx context.Context, req GenerateInterviewRequest) (*domain.Interview, error) {
	if missing := req.missingFields(); len(missing) > 0 {
		return nil, &domain.MissingFieldsError{Fields: missing}
	}

	prompt := fmt.Sprintf(questionPrompt, req.Role, req.Level, req.TechStack, req.Type, req.Amount.String())
	raw, err := s.llm.Generate(ctx, domain.GenerateRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	s.log.WithField("length", len(raw)).Debug("question generation response received")

	questions, err := ParseQuestions(raw)
	if err != nil {
		return nil, err
	}

	interview := &domain.Interview{
		ID:         uuid.NewString(),
		Role:       req.Role,
		Type:       req.Type,
		Level:      req.Level,
		TechStack:  splitTechStack(req.TechStack),
		Questions:  questions,
		UserID:     req.UserID,
		Finalized:  true,
		CoverImage: interviewCovers[rand.IntN(len(interviewCovers))],
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Create(ctx, interview); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"interview_id": interview.ID,
		"questions":    len(questions),
	}).Info("interview created")
	return interview, nil
}

func splitTechStack(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s *InterviewService) Get(ctx context.Context, id string) (*domain.Interview, error) {
	return s.store.Get(ctx, id)
}

func (s *InterviewService) ListByUser(ctx context.Context, userID string) ([]domain.Interview, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListLatest returns finalized interviews created by other users, newest first.
func (s *InterviewService) ListLatest(ctx context.Context, userID string, limit int) ([]domain.Interview, error) {
	if limit <= 0 {
		limit = defaultLatestLimit
	}
	return s.store.ListLatest(ctx, userID, limit)
}

func (s *InterviewService) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}
