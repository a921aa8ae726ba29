// Package responder defines the capability every participant backend implements,
// plus the adapters that need no vendor transport.
package responder

import (
	"context"

	"imitgame/internal/message"
)

// Responder produces the next chat reply for the participant with the given label.
// Implementations return provider errors as-is; the caller decides what to do.
type Responder interface {
	Name() string
	Respond(ctx context.Context, transcript []message.Message, label string) (string, error)
}

// VoteResponder is implemented by responders that answer vote requests
// differently from ordinary turns.
type VoteResponder interface {
	RespondVote(ctx context.Context, transcript []message.Message, label string) (string, error)
}

// RespondVote asks r for a vote, using its vote-specific mode when it has one and
// falling back to Respond otherwise.
func RespondVote(ctx context.Context, r Responder, transcript []message.Message, label string) (string, error) {
	if v, ok := r.(VoteResponder); ok {
		return v.RespondVote(ctx, transcript, label)
	}
	return r.Respond(ctx, transcript, label)
}

// RespondFunc is the signature of a single reply operation.
type RespondFunc func(ctx context.Context, transcript []message.Message, label string) (string, error)

// Func builds a Responder from plain functions. Vote may be nil, in which case
// vote requests go through Reply.
type Func struct {
	DisplayName string
	Reply       RespondFunc
	Vote        RespondFunc
}

func (f Func) Name() string {
	return f.DisplayName
}

func (f Func) Respond(ctx context.Context, transcript []message.Message, label string) (string, error) {
	return f.Reply(ctx, transcript, label)
}

func (f Func) RespondVote(ctx context.Context, transcript []message.Message, label string) (string, error) {
	if f.Vote == nil {
		return f.Reply(ctx, transcript, label)
	}
	return f.Vote(ctx, transcript, label)
}

// Masked presents an inner responder under a different display name, e.g. an AI
// standing in for the human in demo games.
type Masked struct {
	DisplayName string
	Inner       Responder
}

func (m Masked) Name() string {
	return m.DisplayName
}

func (m Masked) Respond(ctx context.Context, transcript []message.Message, label string) (string, error) {
	return m.Inner.Respond(ctx, transcript, label)
}

func (m Masked) RespondVote(ctx context.Context, transcript []message.Message, label string) (string, error) {
	return RespondVote(ctx, m.Inner, transcript, label)
}
