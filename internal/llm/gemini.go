package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultGeminiBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultGeminiAPIVersion = "v1beta"
)

// GeminiClient wraps the genai SDK and retries transient failures.
type GeminiClient struct {
	models         *genai.Models
	maxRetries     int
	retryInterval  time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger
}

type GeminiOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// RetryInterval is the first backoff delay; later ones grow exponentially.
	RetryInterval time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

func NewGeminiClient(opts GeminiOptions) (*GeminiClient, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("GOOGLE_API_KEY or GEMINI_API_KEY is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    base + "/",
			APIVersion: DefaultGeminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{
		models:         client.Models,
		maxRetries:     min(max(opts.MaxRetries, 0), 6),
		retryInterval:  interval,
		requestTimeout: timeout,
		logger:         logger,
	}, nil
}

// Generate returns the concatenated text parts of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if model == "" {
		return "", errors.New("model is required")
	}
	if len(contents) == 0 {
		return "", errors.New("contents cannot be empty")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.MaxInterval = 20 * time.Second

	attempt := 0
	start := time.Now()
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		text, err := c.generateOnce(ctx, model, contents, cfg)
		if err != nil && !retryable(err) {
			return "", backoff.Permanent(err)
		}
		return text, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Debug("gemini generate retrying",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return "", err
	}
	c.logger.Debug("gemini generate completed",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("attempts", attempt),
	)
	return text, nil
}

func (c *GeminiClient) generateOnce(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.models.GenerateContent(reqCtx, model, contents, cfg)
	if err != nil {
		if code, msg, ok := geminiStatus(err); ok {
			return "", &APIError{Provider: "gemini", StatusCode: code, Body: msg}
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String(), nil
}

func geminiStatus(err error) (code int, msg string, ok bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code, v.Message, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return p.Code, p.Message, true
	}
	return 0, "", false
}

// retryable reports whether a failed attempt is worth repeating: transport
// failures, timeouts from upstream, rate limits and server errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrEmptyResponse) {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	switch apiErr.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	default:
		return apiErr.StatusCode >= 500
	}
}
