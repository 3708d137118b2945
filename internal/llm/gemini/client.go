// Package gemini implements llm.Provider on the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"cvbuilder-backend/internal/llm"
	"cvbuilder-backend/internal/shared/telemetry"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

// Config configures a Client. BaseURL overrides the API endpoint and is meant for tests.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client wraps a genai client.
type Client struct {
	model  string
	models *genai.Models
}

// New builds a Client. APIKey is required.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{model: cfg.Model, models: client.Models}, nil
}

// GenerateText sends the template as system instruction and asks for a JSON response.
func (c *Client) GenerateText(ctx context.Context, promptTemplate string, payload any) (json.RawMessage, error) {
	body, err := llm.RenderPayload(payload)
	if err != nil {
		return nil, err
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(promptTemplate, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(float32(0)),
	}

	start := time.Now()
	result, err := c.models.GenerateContent(ctx, c.model, genai.Text(body), config)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, mapError(err)
	}

	fields := map[string]any{"provider": providerName, "model": c.model, "ms": time.Since(start).Milliseconds()}
	if result.UsageMetadata != nil {
		fields["prompt_tokens"] = result.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = result.UsageMetadata.CandidatesTokenCount
	}
	telemetry.Info("llm.completion", fields)

	return llm.ExtractJSON(result.Text())
}

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Provider: providerName, Code: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &llm.StatusError{Provider: providerName, Code: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini request: %w: %w", llm.ErrTransport, err)
}
