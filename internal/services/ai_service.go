// internal/services/ai_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
)

// ContentGenerator drafts newsletter copy.
type ContentGenerator interface {
	GenerateNewsletter(ctx context.Context, topic string, highlights []string) (*GeneratedContent, error)
}

type GeneratedContent struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// AIService talks to an OpenAI compatible chat completions endpoint.
type AIService struct {
	model  string
	client *openai.Client
}

const newsletterSystemPrompt = `You write short marketing newsletters for an online shop.
Reply with a JSON object {"subject": string, "html": string}.
The html is a fragment (no <html> or <body>) using <h2>, <p>, <ul> and <li> only.`

func NewAIService(cfg config.AIConfig) *AIService {
	if cfg.APIKey == "" {
		return &AIService{model: cfg.Model}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &AIService{
		model:  cfg.Model,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (s *AIService) GenerateNewsletter(ctx context.Context, topic string, highlights []string) (*GeneratedContent, error) {
	if s.client == nil {
		return nil, fmt.Errorf("ai provider: %w", ErrNotConfigured)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Topic: %s\n", topic)
	if len(highlights) > 0 {
		prompt.WriteString("Products to feature:\n")
		for _, h := range highlights {
			fmt.Fprintf(&prompt, "- %s\n", h)
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: newsletterSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			logrus.WithFields(logrus.Fields{
				"status": apiErr.HTTPStatusCode,
				"type":   apiErr.Type,
			}).Warn("AI provider rejected newsletter request")
		}
		return nil, fmt.Errorf("ai provider error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ai provider returned no choices")
	}

	var content GeneratedContent
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &content); err != nil {
		return nil, fmt.Errorf("ai provider returned malformed content: %w", err)
	}
	if content.Subject == "" || content.HTML == "" {
		return nil, fmt.Errorf("ai provider returned empty content")
	}
	return &content, nil
}
