package game

import (
	"imitgame/internal/message"
	"imitgame/internal/vote"
)

type EventKind string

const (
	EventMessage    EventKind = "message"
	EventVote       EventKind = "vote"
	EventDiagnostic EventKind = "diagnostic"
	EventOutcome    EventKind = "outcome"
)

// Reason classifies a diagnostic so consumers never match on its text.
type Reason string

const (
	ReasonEmptyReply  Reason = "empty_reply"
	ReasonParseFailed Reason = "parse_failed"
	ReasonJudgeRetry  Reason = "judge_retry"
)

// Event reports game progress to a presentation layer. Exactly one payload field
// is set, matching Kind; diagnostics carry Notice and Reason.
type Event struct {
	GameID  string
	Seq     int
	Kind    EventKind
	Message *message.Message
	Vote    *vote.Result
	Notice  string
	Reason  Reason
	Outcome *Outcome
}

// Sink receives events synchronously on the goroutine running the game.
type Sink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type discard struct{}

func (discard) Emit(Event) {}

func (g *Game) emit(e Event) {
	g.seq++
	e.GameID = g.id
	e.Seq = g.seq
	g.sink.Emit(e)
}

func (g *Game) notice(reason Reason, format string, args ...any) {
	g.emit(Event{Kind: EventDiagnostic, Reason: reason, Notice: sprintf(format, args...)})
}
