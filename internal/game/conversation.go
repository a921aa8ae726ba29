package game

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"imitgame/internal/message"
)

// RunConversation announces the topic and then gives every participant one turn
// per round, in seat order. Each appended message is yielded as soon as it exists.
// Empty replies are skipped. A responder error is yielded once and ends the sequence.
//
// Turns run strictly one after another: every turn sees the transcript produced by
// all earlier turns.
func (g *Game) RunConversation(ctx context.Context, topic string) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		if g.started {
			yield(message.Message{}, ErrAlreadyPlayed)
			return
		}
		g.started = true
		g.topic = topic

		opening := message.Message{
			Role:      message.RoleUser,
			Content:   g.prompts.Topic(topic),
			SpeakerID: message.SpeakerSystem,
			CreatedAt: g.now(),
		}
		g.append(opening)
		if !yield(opening, nil) {
			return
		}

		for turn := 1; turn <= g.numTurns; turn++ {
			for _, p := range g.participants {
				if err := ctx.Err(); err != nil {
					yield(message.Message{}, err)
					return
				}
				reply, err := p.Responder.Respond(ctx, g.contextFor(p), p.Label)
				if err != nil {
					yield(message.Message{}, fmt.Errorf("%s (%s) round %d: %w", p.Label, p.Responder.Name(), turn, err))
					return
				}
				text := stripSelfLabel(reply, p.Label)
				if text == "" {
					g.notice(ReasonEmptyReply, "%s returned empty response, skipping", p.Label)
					continue
				}
				msg := message.Message{
					Role:      message.RoleAssistant,
					Content:   text,
					SpeakerID: p.Label,
					CreatedAt: g.now(),
				}
				g.append(msg)
				if !yield(msg, nil) {
					return
				}
			}
		}
	}
}

// contextFor is what participant p sees on its turn: its own framing followed by
// a copy of the full transcript.
func (g *Game) contextFor(p Participant) []message.Message {
	out := make([]message.Message, 0, len(g.transcript)+1)
	out = append(out, message.System(g.prompts.System(g.topic, p.Label)))
	return append(out, g.transcript...)
}

// stripSelfLabel removes leading echoes of the speaker's own label such as
// "Actor 2:", "**Actor 2:**" or "[Actor 2]".
func stripSelfLabel(reply, label string) string {
	s := strings.TrimSpace(reply)
	prefixes := []string{
		label + ":",
		"**" + label + ":**",
		"**" + label + "**:",
		"**" + label + "**",
		"[" + label + "]:",
		"[" + label + "]",
	}
	for {
		cut := false
		for _, p := range prefixes {
			if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
				s = strings.TrimSpace(s[len(p):])
				cut = true
				break
			}
		}
		if !cut {
			return s
		}
	}
}
