package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type OpenRouterClient struct {
	client openai.Client
	logger *zap.Logger
}

type OpenRouterOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Logger     *zap.Logger
}

func NewOpenRouterClient(opts OpenRouterOptions) (*OpenRouterClient, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("OPENROUTER_API_KEY is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultOpenRouterBaseURL
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithBaseURL(base + "/"),
		option.WithMaxRetries(max(opts.MaxRetries, 0)),
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenRouterClient{client: openai.NewClient(reqOpts...), logger: logger}, nil
}

func (c *OpenRouterClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.Model == "" {
		return ChatResponse{}, errors.New("model is required")
	}
	if len(req.Messages) == 0 {
		return ChatResponse{}, errors.New("messages cannot be empty")
	}
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: convertMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return ChatResponse{}, &APIError{Provider: "openrouter", StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return ChatResponse{}, fmt.Errorf("openrouter chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("no response from %s: %w", req.Model, ErrEmptyResponse)
	}
	choice := resp.Choices[0]
	c.logger.Debug("openrouter chat completed",
		zap.String("model", req.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(choice.FinishReason)),
	)
	return ChatResponse{Content: choice.Message.Content, FinishReason: string(choice.FinishReason)}, nil
}

func convertMessages(msgs []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
