// Package game runs one round of the imitation game: a fixed-order group chat
// between AI participants and one human, followed by a vote on who the human is.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"imitgame/internal/message"
	"imitgame/internal/prompt"
	"imitgame/internal/responder"
	"imitgame/internal/vote"
)

var (
	ErrNoHuman        = errors.New("game: exactly one human participant is required")
	ErrMultipleHumans = errors.New("game: more than one human participant")
	ErrDuplicateLabel = errors.New("game: duplicate identity label")
	ErrNoJudge        = errors.New("game: judge mode needs a judge responder")
	ErrNoParticipants = errors.New("game: no participants")
	ErrAlreadyPlayed  = errors.New("game: conversation already started")
)

const JudgeLabel = "Judge"

type Mode string

const (
	// ModePeer lets every AI participant vote; the majority decides.
	ModePeer Mode = "peer"
	// ModeJudge hands the decision to one external judge.
	ModeJudge Mode = "judge"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePeer:
		return ModePeer, nil
	case ModeJudge:
		return ModeJudge, nil
	default:
		return "", fmt.Errorf("unknown vote mode %q", s)
	}
}

// VotingRules are fixed for the lifetime of a game.
type VotingRules struct {
	Mode Mode
	// HumanVotes asks the human for a vote in peer mode.
	HumanVotes bool
	// ExcludeHumanVote records the human's vote but leaves it out of the tally.
	ExcludeHumanVote bool
	// ExcludeSentinels leaves Unknown and Parse Error votes out of the tally.
	ExcludeSentinels bool
	// ExcludeSelfVotes leaves votes a participant cast for itself out of the tally.
	ExcludeSelfVotes bool
	// ExcludeHumanTarget leaves votes cast for the human out of the tally. With it
	// set the human can never be caught in peer mode.
	ExcludeHumanTarget bool
}

type Config struct {
	ID          string
	NumTurns    int
	LabelPrefix string
	// Shuffle randomizes participant order once, before labels are assigned.
	Shuffle bool
	Rand    *rand.Rand
	Voting  VotingRules
	Judge   responder.Responder
	Prompts *prompt.Set
	Sink    Sink
	Now     func() time.Time
}

type Participant struct {
	Responder responder.Responder
	Label     string
	IsHuman   bool
}

// Game is single-use: construct, Play (or RunConversation then CollectVotes and
// Finish), read the Outcome.
type Game struct {
	id           string
	numTurns     int
	prefix       string
	participants []Participant
	human        string
	rules        VotingRules
	judge        responder.Responder
	prompts      *prompt.Set
	parser       *vote.Parser
	sink         Sink
	now          func() time.Time

	topic      string
	started    bool
	transcript []message.Message
	seq        int
}

// New seats the AI responders followed by the human and assigns labels
// "<prefix> 1".."<prefix> n" in that order, shuffled first when cfg.Shuffle is set.
func New(ais []responder.Responder, human responder.Responder, cfg Config) (*Game, error) {
	if human == nil {
		return nil, ErrNoHuman
	}
	seats := make([]Participant, 0, len(ais)+1)
	for _, r := range ais {
		if r == nil {
			return nil, errors.New("game: nil responder")
		}
		seats = append(seats, Participant{Responder: r})
	}
	seats = append(seats, Participant{Responder: human, IsHuman: true})

	if cfg.Shuffle {
		rng := cfg.Rand
		if rng == nil {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		rng.Shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })
	}
	parser := vote.NewParser(cfg.LabelPrefix)
	for i := range seats {
		seats[i].Label = parser.Label(i + 1)
	}
	return NewWithParticipants(seats, cfg)
}

// NewWithParticipants uses the given seats and labels as-is.
func NewWithParticipants(participants []Participant, cfg Config) (*Game, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	seen := make(map[string]struct{}, len(participants))
	human := ""
	for _, p := range participants {
		if p.Responder == nil {
			return nil, fmt.Errorf("game: participant %q has no responder", p.Label)
		}
		label := strings.TrimSpace(p.Label)
		if label == "" || label == JudgeLabel {
			return nil, fmt.Errorf("game: invalid label %q", p.Label)
		}
		if _, ok := seen[label]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, label)
		}
		seen[label] = struct{}{}
		if p.IsHuman {
			if human != "" {
				return nil, ErrMultipleHumans
			}
			human = label
		}
	}
	if human == "" {
		return nil, ErrNoHuman
	}

	rules := cfg.Voting
	if rules.Mode == "" {
		rules.Mode = ModePeer
	}
	if rules.Mode != ModePeer && rules.Mode != ModeJudge {
		return nil, fmt.Errorf("game: unknown vote mode %q", rules.Mode)
	}
	if rules.Mode == ModeJudge && cfg.Judge == nil {
		return nil, ErrNoJudge
	}

	g := &Game{
		id:           strings.TrimSpace(cfg.ID),
		numTurns:     max(cfg.NumTurns, 0),
		prefix:       strings.TrimSpace(cfg.LabelPrefix),
		participants: append([]Participant(nil), participants...),
		human:        human,
		rules:        rules,
		judge:        cfg.Judge,
		prompts:      cfg.Prompts,
		parser:       vote.NewParser(cfg.LabelPrefix),
		sink:         cfg.Sink,
		now:          cfg.Now,
	}
	if g.id == "" {
		g.id = newID()
	}
	if g.prefix == "" {
		g.prefix = vote.DefaultLabelPrefix
	}
	if g.prompts == nil {
		g.prompts = prompt.Default()
	}
	if g.sink == nil {
		g.sink = discard{}
	}
	if g.now == nil {
		g.now = func() time.Time { return time.Now().UTC() }
	}
	return g, nil
}

func (g *Game) ID() string { return g.id }

func (g *Game) HumanLabel() string { return g.human }

func (g *Game) Rules() VotingRules { return g.rules }

// Participants returns the seats in speaking order.
func (g *Game) Participants() []Participant {
	return append([]Participant(nil), g.participants...)
}

// Labels returns all identity labels in speaking order.
func (g *Game) Labels() []string {
	out := make([]string, len(g.participants))
	for i, p := range g.participants {
		out[i] = p.Label
	}
	return out
}

// Transcript returns a copy of the messages produced so far.
func (g *Game) Transcript() []message.Message {
	return message.Clone(g.transcript)
}

func (g *Game) append(m message.Message) {
	g.transcript = append(g.transcript, m)
	g.emit(Event{Kind: EventMessage, Message: &m})
}

// newID returns a time-ordered id so stored games sort by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
