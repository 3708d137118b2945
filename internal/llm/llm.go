// Package llm defines the text-generation provider contract and the helpers shared by providers.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Provider generates a JSON document from a prompt template and a structured payload.
// Implementations return an error for transport failures and for non-JSON output.
type Provider interface {
	GenerateText(ctx context.Context, promptTemplate string, payload any) (json.RawMessage, error)
}

var (
	// ErrNotImplemented is returned by the placeholder provider.
	ErrNotImplemented = errors.New("LLM not implemented")
	// ErrInvalidJSON means the provider answered with something that is not a JSON object.
	ErrInvalidJSON = errors.New("provider returned invalid JSON")
	// ErrEmptyResponse means the provider answered without content.
	ErrEmptyResponse = errors.New("provider returned empty content")
	// ErrTransport marks a request that never got an HTTP answer.
	ErrTransport = errors.New("provider unreachable")
)

// IsProviderFailure reports whether err came from the provider rather than from the caller's context.
func IsProviderFailure(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) ||
		errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrNotImplemented)
}

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: http status %d: %s", e.Provider, e.Code, e.Message)
}

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// BuildMessages renders the template as the system turn and the payload as JSON in the user turn.
func BuildMessages(promptTemplate string, payload any) ([]Message, error) {
	body, err := RenderPayload(payload)
	if err != nil {
		return nil, err
	}
	return []Message{
		{Role: "system", Content: promptTemplate},
		{Role: "user", Content: body},
	}, nil
}

// RenderPayload encodes payload as indented JSON.
func RenderPayload(payload any) (string, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(body), nil
}

// ExtractJSON trims whitespace and markdown fences around a model answer and validates it.
func ExtractJSON(content string) (json.RawMessage, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, ErrEmptyResponse
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(s), nil
}

// PlaceholderClient is a stub used until a provider is configured.
type PlaceholderClient struct{}

// GenerateText returns ErrNotImplemented.
func (PlaceholderClient) GenerateText(ctx context.Context, promptTemplate string, payload any) (json.RawMessage, error) {
	_ = ctx
	_ = promptTemplate
	_ = payload
	return nil, ErrNotImplemented
}

// Truncate caps s at max bytes without splitting a multi-byte character.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
