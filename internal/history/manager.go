// Package history persists finished games and summarizes them.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"imitgame/internal/game"
	"imitgame/internal/storage"
	"imitgame/internal/vote"
)

// Record is one stored game.
type Record struct {
	game.Outcome
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Summary is the listing view of a record.
type Summary struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Mode        game.Mode `json:"mode"`
	HumanLabel  string    `json:"human_label"`
	HumanCaught bool      `json:"human_caught"`
	FinishedAt  time.Time `json:"finished_at"`
}

type Stats struct {
	Games        int            `json:"games"`
	HumanCaught  int            `json:"human_caught"`
	HumanEscaped int            `json:"human_escaped"`
	ByMode       map[string]int `json:"by_mode"`
	Votes        int            `json:"votes"`
	ParseErrors  int            `json:"parse_errors"`
	// SuspectedAI counts, per display name, how often an AI participant got the
	// most votes or the judge's vote.
	SuspectedAI map[string]int `json:"suspected_ai"`
}

type Manager struct {
	store storage.Store
	now   func() time.Time
}

func NewManager(store storage.Store) *Manager {
	return &Manager{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Save stores the outcome of a game that started at startedAt.
func (m *Manager) Save(ctx context.Context, out game.Outcome, startedAt time.Time) (Record, error) {
	if strings.TrimSpace(out.GameID) == "" {
		return Record{}, fmt.Errorf("save game: empty id")
	}
	r := Record{Outcome: out, StartedAt: startedAt.UTC(), FinishedAt: m.now()}
	raw, err := json.Marshal(r)
	if err != nil {
		return Record{}, fmt.Errorf("encode game: %w", err)
	}
	if err := m.store.SaveGame(ctx, r.GameID, raw); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (m *Manager) Get(ctx context.Context, gameID string) (Record, error) {
	raw, err := m.store.LoadGame(ctx, strings.TrimSpace(gameID))
	if err != nil {
		return Record{}, err
	}
	return decode(raw)
}

func (m *Manager) ListGameIDs(ctx context.Context, limit int) ([]string, error) {
	return m.store.ListGameIDs(ctx, limit)
}

// List returns summaries of the most recent games, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]Summary, error) {
	ids, err := m.store.ListGameIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		r, err := m.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", id, err)
		}
		out = append(out, r.Summary())
	}
	return out, nil
}

// ForEach decodes every stored record in id order.
func (m *Manager) ForEach(ctx context.Context, fn func(Record) error) error {
	return m.store.ForEachGame(ctx, func(id string, raw []byte) error {
		r, err := decode(raw)
		if err != nil {
			return fmt.Errorf("game %s: %w", id, err)
		}
		return fn(r)
	})
}

func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByMode: map[string]int{}, SuspectedAI: map[string]int{}}
	err := m.ForEach(ctx, func(r Record) error {
		st.add(r)
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (r Record) Summary() Summary {
	return Summary{
		ID:          r.GameID,
		Topic:       r.Topic,
		Mode:        r.Mode,
		HumanLabel:  r.HumanLabel,
		HumanCaught: r.HumanCaught,
		FinishedAt:  r.FinishedAt,
	}
}

func (s *Stats) add(r Record) {
	s.Games++
	if r.HumanCaught {
		s.HumanCaught++
	} else {
		s.HumanEscaped++
	}
	s.ByMode[string(r.Mode)]++
	for _, v := range r.Votes {
		s.Votes++
		if v.VotedFor == vote.ParseError {
			s.ParseErrors++
		}
	}
	if r.MostVoted == "" || r.MostVoted == r.HumanLabel {
		return
	}
	for _, seat := range r.Seats {
		if seat.Label == r.MostVoted && !seat.IsHuman {
			s.SuspectedAI[seat.Name]++
		}
	}
}

func decode(raw []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("decode game: %w", err)
	}
	return r, nil
}
