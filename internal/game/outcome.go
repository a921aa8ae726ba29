package game

import (
	"context"

	"imitgame/internal/message"
	"imitgame/internal/vote"
)

type Seat struct {
	Label   string `json:"label"`
	Name    string `json:"name"`
	IsHuman bool   `json:"is_human"`
}

// Outcome is the caller-owned snapshot of a finished game.
type Outcome struct {
	GameID      string            `json:"game_id"`
	Topic       string            `json:"topic"`
	Mode        Mode              `json:"mode"`
	Seats       []Seat            `json:"seats"`
	Votes       []vote.Vote       `json:"votes"`
	Tally       []vote.Count      `json:"tally"`
	MostVoted   string            `json:"most_voted,omitempty"`
	HumanLabel  string            `json:"human_label"`
	HumanCaught bool              `json:"human_caught"`
	Transcript  []message.Message `json:"transcript"`
}

// Play runs the conversation, collects and parses votes, and aggregates them.
func (g *Game) Play(ctx context.Context, topic string) (Outcome, error) {
	for _, err := range g.RunConversation(ctx, topic) {
		if err != nil {
			return Outcome{}, err
		}
	}
	votes, err := g.CollectVotes(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return g.Finish(votes), nil
}

// Finish tallies votes under the game's rules and emits the outcome.
func (g *Game) Finish(votes []vote.Vote) Outcome {
	tally, mostVoted, caught := Aggregate(g.rules, votes, g.human)
	seats := make([]Seat, len(g.participants))
	for i, p := range g.participants {
		seats[i] = Seat{Label: p.Label, Name: p.Responder.Name(), IsHuman: p.IsHuman}
	}
	out := Outcome{
		GameID:      g.id,
		Topic:       g.topic,
		Mode:        g.rules.Mode,
		Seats:       seats,
		Votes:       append([]vote.Vote(nil), votes...),
		Tally:       tally.Counts(),
		MostVoted:   mostVoted,
		HumanLabel:  g.human,
		HumanCaught: caught,
		Transcript:  g.Transcript(),
	}
	g.emit(Event{Kind: EventOutcome, Outcome: &out})
	return out
}

// Aggregate decides whether the human was identified. In judge mode the judge's
// single vote decides; in peer mode the tally winner does, with ties going to the
// label recorded first. No counted votes means the human escaped.
func Aggregate(rules VotingRules, votes []vote.Vote, humanLabel string) (tally *vote.Tally, mostVoted string, caught bool) {
	if rules.Mode == ModeJudge {
		tally = vote.CountVotes(votes, nil)
		if len(votes) != 1 {
			return tally, "", false
		}
		return tally, votes[0].VotedFor, votes[0].VotedFor == humanLabel
	}
	tally = vote.CountVotes(votes, func(v vote.Vote) bool {
		if rules.ExcludeSentinels && v.IsSentinel() {
			return false
		}
		if rules.ExcludeHumanVote && v.Voter == humanLabel {
			return false
		}
		if rules.ExcludeSelfVotes && v.Voter == v.VotedFor {
			return false
		}
		if rules.ExcludeHumanTarget && v.VotedFor == humanLabel {
			return false
		}
		return true
	})
	winner, ok := tally.Winner()
	if !ok {
		return tally, "", false
	}
	return tally, winner, winner == humanLabel
}
