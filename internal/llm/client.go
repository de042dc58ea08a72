// Package llm is a thin chat-completion client for the language model. It
// speaks the OpenAI chat-completions wire format (go-openai) against a
// configurable base URL, which by default is Anthropic's compatible endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tbourn/fdd-analyzer-backend/internal/config"
)

// Roles accepted in Request.Messages.
const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

var (
	// ErrNotConfigured is returned by Complete when no API key is set.
	ErrNotConfigured = errors.New("model api key not configured")

	// ErrEmptyResponse is returned when the model answered without any content.
	ErrEmptyResponse = errors.New("model returned no content")
)

// Message is one conversational turn.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion call. System is sent as the leading system
// message when non-empty.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Client issues completions against one model.
type Client struct {
	api        *openai.Client
	model      string
	configured bool
}

// New builds a Client. The HTTP client carries the configured timeout so a
// stalled model call fails instead of holding the request open.
func New(cfg config.LLMConfig) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		api:        openai.NewClientWithConfig(oc),
		model:      cfg.Model,
		configured: cfg.APIKey != "",
	}
}

// Complete sends req and returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("model api error (status %d): %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("model request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
