package infrastructure

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"interview-coach/domain"
)

type OpenAILLM struct {
	client *openai.Client
	model  string
}

var _ domain.LLM = (*OpenAILLM)(nil)

// NewOpenAILLM builds a client for the OpenAI API, or any compatible endpoint
// when baseURL is set.
func NewOpenAILLM(apiKey, model, baseURL string) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAILLM{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (o *OpenAILLM) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0.1,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}
