// Package openai talks to OpenAI-compatible chat completion APIs (OpenAI, OpenRouter).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"cvbuilder-backend/internal/llm"
	"cvbuilder-backend/internal/shared/telemetry"
)

const (
	BaseURLOpenAI     = "https://api.openai.com/v1"
	BaseURLOpenRouter = "https://openrouter.ai/api/v1"

	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 300
)

// Config configures a Client.
type Config struct {
	// Name labels errors and logs ("openai", "openrouter").
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Referer and Title are sent as OpenRouter attribution headers when set.
	Referer string
	Title   string
}

// Client implements llm.Provider over the chat completions endpoint.
type Client struct {
	name  string
	model string
	http  *resty.Client
}

// New builds a Client. APIKey is required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURLOpenAI
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	if cfg.Referer != "" {
		rc.SetHeader("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		rc.SetHeader("X-Title", cfg.Title)
	}
	return &Client{name: cfg.Name, model: cfg.Model, http: rc}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format"`
}

// GenerateText sends the template as the system message and the payload as the user message
// and returns the JSON object the model answered with.
func (c *Client) GenerateText(ctx context.Context, promptTemplate string, payload any) (json.RawMessage, error) {
	msgs, err := llm.BuildMessages(promptTemplate, payload)
	if err != nil {
		return nil, err
	}
	req := chatRequest{
		Model:          c.model,
		Temperature:    0,
		ResponseFormat: map[string]any{"type": "json_object"},
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s request: %w: %w", c.name, llm.ErrTransport, err)
	}
	body := resp.String()
	if resp.IsError() {
		return nil, &llm.StatusError{Provider: c.name, Code: resp.StatusCode(), Message: errorMessage(body)}
	}

	telemetry.Info("llm.completion", map[string]any{
		"provider":          c.name,
		"model":             gjson.Get(body, "model").String(),
		"prompt_tokens":     gjson.Get(body, "usage.prompt_tokens").Int(),
		"completion_tokens": gjson.Get(body, "usage.completion_tokens").Int(),
		"ms":                time.Since(start).Milliseconds(),
	})

	content := gjson.Get(body, "choices.0.message.content")
	if !content.Exists() {
		return nil, llm.ErrEmptyResponse
	}
	return llm.ExtractJSON(content.String())
}

func errorMessage(body string) string {
	msg := gjson.Get(body, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(body)
	}
	return llm.Truncate(msg, maxErrorBody)
}
