package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"interview-coach/domain"
)

// VertexLLM generates text with Gemini models served by Vertex AI, using
// application default credentials.
type VertexLLM struct {
	client *genai.Client
	model  string
}

var _ domain.LLM = (*VertexLLM)(nil)

func NewVertexLLM(ctx context.Context, project, location, model string) (*VertexLLM, error) {
	if project == "" {
		return nil, errors.New("VERTEX_PROJECT is not set")
	}
	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}
	return &VertexLLM{client: client, model: model}, nil
}

func (v *VertexLLM) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	// GenerativeModel carries per-request settings, so build one per call.
	model := v.client.GenerativeModel(v.model)
	model.SetTemperature(0.1)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", errors.New("vertex returned no text")
	}
	return b.String(), nil
}

func (v *VertexLLM) Close() error {
	return v.client.Close()
}
