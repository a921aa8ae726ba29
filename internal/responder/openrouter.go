package responder

import (
	"context"
	"strings"

	"imitgame/internal/llm"
	"imitgame/internal/message"
)

const DefaultMaxTokens = 512

// OpenRouter answers turns with an OpenAI-compatible chat completion.
type OpenRouter struct {
	chat      llm.ChatProvider
	model     string
	maxTokens int
}

func NewOpenRouter(chat llm.ChatProvider, model string, maxTokens int) *OpenRouter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &OpenRouter{chat: chat, model: model, maxTokens: maxTokens}
}

// Name is the model id without its vendor prefix, e.g. "claude-haiku-4.5".
func (o *OpenRouter) Name() string {
	if i := strings.LastIndex(o.model, "/"); i >= 0 {
		return o.model[i+1:]
	}
	return o.model
}

func (o *OpenRouter) Model() string { return o.model }

func (o *OpenRouter) Respond(ctx context.Context, transcript []message.Message, _ string) (string, error) {
	resp, err := o.chat.Chat(ctx, llm.ChatRequest{
		Model:     o.model,
		Messages:  chatMessages(transcript),
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// chatMessages maps a multi-party transcript onto a two-party chat. Every
// attributed message becomes a user turn tagged with its speaker so the model
// does not continue other participants' messages as its own.
func chatMessages(transcript []message.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(transcript))
	for _, m := range transcript {
		switch {
		case m.Role == message.RoleSystem:
			out = append(out, llm.ChatMessage{Role: string(message.RoleSystem), Content: m.Content})
		case m.SpeakerID != "":
			out = append(out, llm.ChatMessage{Role: string(message.RoleUser), Content: m.SpeakerID + ": " + m.Content})
		default:
			out = append(out, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	return out
}
