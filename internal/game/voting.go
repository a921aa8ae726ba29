package game

import (
	"context"
	"fmt"

	"imitgame/internal/message"
	"imitgame/internal/responder"
	"imitgame/internal/vote"
)

// Ballot is one raw vote response and who produced it.
type Ballot struct {
	Voter string
	Raw   string
}

// CollectBallots gathers raw vote responses according to the game's voting mode.
func (g *Game) CollectBallots(ctx context.Context) ([]Ballot, error) {
	if g.rules.Mode == ModeJudge {
		b, err := g.judgeBallot(ctx)
		if err != nil {
			return nil, err
		}
		return []Ballot{b}, nil
	}
	return g.peerBallots(ctx)
}

// CollectVotes gathers ballots and parses each one. Unparseable ballots become
// sentinel votes; only responder errors fail the call.
func (g *Game) CollectVotes(ctx context.Context) ([]vote.Vote, error) {
	ballots, err := g.CollectBallots(ctx)
	if err != nil {
		return nil, err
	}
	votes := make([]vote.Vote, 0, len(ballots))
	for _, b := range ballots {
		res := g.parser.ParseDetailed(b.Voter, b.Raw)
		if res.Strategy == vote.StrategyFailed {
			g.notice(ReasonParseFailed, "failed to parse vote from %s: %s", b.Voter, res.Excerpt)
		}
		g.emit(Event{Kind: EventVote, Vote: &res})
		votes = append(votes, res.Vote)
	}
	return votes, nil
}

func (g *Game) peerBallots(ctx context.Context) ([]Ballot, error) {
	instruction := message.System(g.prompts.Vote(g.prefix, g.Labels()))
	out := make([]Ballot, 0, len(g.participants))
	for _, p := range g.participants {
		if p.IsHuman && !g.rules.HumanVotes {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgs := append(g.contextFor(p), instruction)
		raw, err := responder.RespondVote(ctx, p.Responder, msgs, p.Label)
		if err != nil {
			return nil, fmt.Errorf("%s (%s) vote: %w", p.Label, p.Responder.Name(), err)
		}
		out = append(out, Ballot{Voter: p.Label, Raw: raw})
	}
	return out, nil
}

// judgeBallot asks the judge once and, if the answer is not a well-formed vote
// object or the call failed, once more with a correction instruction. The second
// answer is accepted whatever it contains.
func (g *Game) judgeBallot(ctx context.Context) (Ballot, error) {
	labels := g.Labels()
	judgeSystem := g.prompts.Judge(g.prefix)

	first, firstErr := responder.RespondVote(ctx, g.judge, g.judgeContext(judgeSystem, g.prompts.JudgeRequest(labels)), JudgeLabel)
	if firstErr == nil && g.parser.ParseDetailed(JudgeLabel, first).WellFormed() {
		return Ballot{Voter: JudgeLabel, Raw: first}, nil
	}
	if err := ctx.Err(); err != nil {
		return Ballot{}, err
	}
	if firstErr != nil {
		g.notice(ReasonJudgeRetry, "judge %s failed, retrying once: %v", g.judge.Name(), firstErr)
	} else {
		g.notice(ReasonJudgeRetry, "judge %s answer was not a well-formed vote, retrying once", g.judge.Name())
	}

	request := g.prompts.JudgeRequest(labels)
	if first != "" {
		request += "\n\n" + g.prompts.JudgeCorrection(first)
	}
	second, err := responder.RespondVote(ctx, g.judge, g.judgeContext(judgeSystem+"\n\n"+g.prompts.JudgeStrict(), request), JudgeLabel)
	if err != nil {
		if firstErr == nil {
			return Ballot{Voter: JudgeLabel, Raw: first}, nil
		}
		return Ballot{}, fmt.Errorf("judge %s vote: %w", g.judge.Name(), err)
	}
	return Ballot{Voter: JudgeLabel, Raw: second}, nil
}

func (g *Game) judgeContext(system, request string) []message.Message {
	out := make([]message.Message, 0, len(g.transcript)+2)
	out = append(out, message.System(system))
	out = append(out, g.transcript...)
	return append(out, message.User(request))
}
