package responder

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"imitgame/internal/llm"
	"imitgame/internal/prompt"
)

var ErrUnknownSpec = errors.New("responder: unknown provider spec")

const (
	SpecHuman         = "human"
	SpecGeminiPrefill = "gemini-prefill"
)

// FactoryOptions carries everything needed to build responders from specs.
// Credentials are checked when the first responder needing them is built.
type FactoryOptions struct {
	OpenRouterKey      string
	OpenRouterBaseURL  string
	GeminiKey          string
	GeminiBaseURL      string
	GeminiModel        string
	GeminiPrefillModel string
	Timeout            time.Duration
	MaxRetries         int
	MaxTokens          int
	LabelPrefix        string
	Prompts            *prompt.Set

	HumanName string
	In        io.Reader
	Out       io.Writer

	Logger *zap.Logger
}

// Factory builds responders from spec strings and shares transport clients
// between them.
type Factory struct {
	opts FactoryOptions

	mu         sync.Mutex
	openrouter *llm.OpenRouterClient
	gemini     *llm.GeminiClient
	human      *Human
}

func NewFactory(opts FactoryOptions) *Factory {
	if opts.Prompts == nil {
		opts.Prompts = prompt.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Factory{opts: opts}
}

// FromSpec resolves one of:
//
//	human
//	gemini-prefill | gemini:prefill | gemini:prefill:<model>
//	openrouter:<vendor/model>
//	<vendor/model>          (OpenRouter)
func (f *Factory) FromSpec(spec string) (Responder, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return nil, fmt.Errorf("%w: empty", ErrUnknownSpec)
	case spec == SpecHuman:
		return f.Human(), nil
	case spec == SpecGeminiPrefill || spec == "gemini:prefill":
		return f.geminiPrefill(f.opts.GeminiModel)
	case strings.HasPrefix(spec, "gemini:prefill:"):
		model := strings.TrimSpace(strings.TrimPrefix(spec, "gemini:prefill:"))
		if model == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSpec, spec)
		}
		return f.geminiPrefill(model)
	case strings.HasPrefix(spec, "gemini:"):
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpec, spec)
	case strings.HasPrefix(spec, "openrouter:"):
		model := strings.TrimSpace(strings.TrimPrefix(spec, "openrouter:"))
		if model == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSpec, spec)
		}
		return f.openRouter(model)
	default:
		return f.openRouter(spec)
	}
}

// FromSpecs resolves every spec in order, dropping "human" entries.
func (f *Factory) FromSpecs(specs []string) ([]Responder, error) {
	out := make([]Responder, 0, len(specs))
	for _, s := range specs {
		if strings.TrimSpace(s) == SpecHuman {
			continue
		}
		r, err := f.FromSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Human returns the single terminal-backed human responder.
func (f *Factory) Human() *Human {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.human == nil {
		f.human = NewHuman(f.opts.HumanName, f.opts.In, f.opts.Out)
	}
	return f.human
}

func (f *Factory) openRouter(model string) (Responder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openrouter == nil {
		c, err := llm.NewOpenRouterClient(llm.OpenRouterOptions{
			BaseURL:    f.opts.OpenRouterBaseURL,
			APIKey:     f.opts.OpenRouterKey,
			Timeout:    f.opts.Timeout,
			MaxRetries: f.opts.MaxRetries,
			Logger:     f.opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		f.openrouter = c
	}
	return NewOpenRouter(f.openrouter, model, f.opts.MaxTokens), nil
}

func (f *Factory) geminiPrefill(model string) (Responder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gemini == nil {
		c, err := llm.NewGeminiClient(llm.GeminiOptions{
			BaseURL:    f.opts.GeminiBaseURL,
			APIKey:     f.opts.GeminiKey,
			Timeout:    f.opts.Timeout,
			MaxRetries: f.opts.MaxRetries,
			Logger:     f.opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		f.gemini = c
	}
	return NewGeminiPrefill(f.gemini, GeminiPrefillOptions{
		Model:        model,
		PrefillModel: f.opts.GeminiPrefillModel,
		Prompts:      f.opts.Prompts,
		LabelPrefix:  f.opts.LabelPrefix,
	}), nil
}
