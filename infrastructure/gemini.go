package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"interview-coach/domain"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiLLM calls the Gemini REST API, trying each configured model in turn
// until one answers.
type GeminiLLM struct {
	apiKey     string
	baseURL    string
	models     []string
	httpClient *http.Client
	log        logrus.FieldLogger
}

var _ domain.LLM = (*GeminiLLM)(nil)

func NewGeminiLLM(apiKey string, models []string, log logrus.FieldLogger) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if len(models) == 0 {
		return nil, errors.New("no Gemini models configured")
	}
	return &GeminiLLM{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		models:     models,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
	}, nil
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (g *GeminiLLM) WithBaseURL(url string) *GeminiLLM {
	g.baseURL = strings.TrimSuffix(url, "/")
	return g
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  map[string]interface{} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiLLM) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: map[string]interface{}{
			"temperature": 0.1,
			"topP":        0.8,
			"topK":        40,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSON {
		body.GenerationConfig["responseMimeType"] = "application/json"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastError error
	for _, model := range g.models {
		text, err := g.callModel(ctx, model, payload)
		if err == nil {
			g.log.WithField("model", model).Debug("gemini generation succeeded")
			return text, nil
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("gemini %s: %w", model, err)
		}
		lastError = err
		g.log.WithError(err).WithField("model", model).Warn("gemini model failed, trying next")
	}
	return "", fmt.Errorf("all models failed: %w", lastError)
}

func (g *GeminiLLM) callModel(ctx context.Context, model string, payload []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	return extractTextFromResponse(parsed)
}

func extractTextFromResponse(resp geminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", errors.New("no parts in content")
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return "", errors.New("no text in part")
	}
	return b.String(), nil
}
