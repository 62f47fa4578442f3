package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"interview-coach/domain"
)

// Client talks to the interview-coach HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type SubmitFeedbackRequest struct {
	InterviewID string            `json:"interviewId"`
	UserID      string            `json:"userId"`
	Transcript  domain.Transcript `json:"transcript"`
	FeedbackID  string            `json:"feedbackId,omitempty"`
}

func (c *Client) SubmitFeedback(ctx context.Context, req SubmitFeedbackRequest) (string, error) {
	var resp struct {
		Success    bool   `json:"success"`
		FeedbackID string `json:"feedbackId"`
		Error      string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/feedback", req, &resp); err != nil {
		return "", err
	}
	return resp.FeedbackID, nil
}

// FeedbackView fetches the feedback page state for an interview.
func (c *Client) FeedbackView(ctx context.Context, interviewID, userID string) (*domain.FeedbackView, error) {
	path := fmt.Sprintf("/interviews/%s/feedback?userId=%s", url.PathEscape(interviewID), url.QueryEscape(userID))
	var view domain.FeedbackView
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

type GenerateInterviewRequest struct {
	Type      string `json:"type"`
	Role      string `json:"role"`
	Level     string `json:"level"`
	TechStack string `json:"techstack"`
	Amount    int    `json:"amount"`
	UserID    string `json:"userid"`
}

func (c *Client) GenerateInterview(ctx context.Context, req GenerateInterviewRequest) (string, error) {
	var resp struct {
		InterviewID string `json:"interviewId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/interviews/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.InterviewID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
