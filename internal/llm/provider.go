// Package llm holds the vendor transports used by model-backed participants.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyResponse = errors.New("llm: response has no candidates")

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model     string
	Messages  []ChatMessage
	MaxTokens int
}

type ChatResponse struct {
	Content      string
	FinishReason string
}

// ChatProvider is an OpenAI-compatible chat completion endpoint.
type ChatProvider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// APIError is a non-2xx answer from an upstream API.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode == 429 {
		return fmt.Sprintf("%s HTTP 429 (rate limited): %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}
