package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"imitgame/internal/game"
	"imitgame/internal/message"
	"imitgame/internal/storage"
	"imitgame/internal/vote"
)

func newStore(t *testing.T) *storage.BoltStore {
	t.Helper()
	s, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "imitgame.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func outcome(id string, caught bool, mostVoted string) game.Outcome {
	return game.Outcome{
		GameID: id,
		Topic:  "tea",
		Mode:   game.ModePeer,
		Seats: []game.Seat{
			{Label: "Actor 1", Name: "claude-haiku-4.5"},
			{Label: "Actor 2", Name: "You", IsHuman: true},
		},
		Votes: []vote.Vote{
			{Voter: "Actor 1", VotedFor: mostVoted, Reasoning: "r"},
			{Voter: "Actor 1", VotedFor: vote.ParseError, Reasoning: "could not extract vote"},
		},
		MostVoted:   mostVoted,
		HumanLabel:  "Actor 2",
		HumanCaught: caught,
		Transcript:  []message.Message{{Role: message.RoleUser, Content: "The topic is: tea. Share your thoughts.", SpeakerID: "System"}},
	}
}

func TestSaveAndGet(t *testing.T) {
	mgr := NewManager(newStore(t))
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return fixed }

	started := fixed.Add(-time.Minute)
	if _, err := mgr.Save(context.Background(), outcome("g1", true, "Actor 2"), started); err != nil {
		t.Fatal(err)
	}
	got, err := mgr.Get(context.Background(), "g1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Topic != "tea" || !got.HumanCaught || len(got.Transcript) != 1 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.StartedAt.Equal(started) || !got.FinishedAt.Equal(fixed) {
		t.Fatalf("unexpected timestamps: %v %v", got.StartedAt, got.FinishedAt)
	}
	if _, err := mgr.Get(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndStats(t *testing.T) {
	mgr := NewManager(newStore(t))
	ctx := context.Background()
	for _, o := range []game.Outcome{
		outcome("g1", true, "Actor 2"),
		outcome("g2", false, "Actor 1"),
		outcome("g3", false, ""),
	} {
		if _, err := mgr.Save(ctx, o, time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	list, err := mgr.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != "g3" {
		t.Fatalf("unexpected list: %+v", list)
	}

	st, err := mgr.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Games != 3 || st.HumanCaught != 1 || st.HumanEscaped != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.Votes != 6 || st.ParseErrors != 3 || st.ByMode["peer"] != 3 {
		t.Fatalf("unexpected vote stats: %+v", st)
	}
	if st.SuspectedAI["claude-haiku-4.5"] != 1 {
		t.Fatalf("unexpected suspected counts: %+v", st.SuspectedAI)
	}
}

func TestSaveRejectsEmptyID(t *testing.T) {
	mgr := NewManager(newStore(t))
	if _, err := mgr.Save(context.Background(), game.Outcome{}, time.Now()); err == nil {
		t.Fatal("expected error")
	}
}

func TestForEachVisitsInIDOrder(t *testing.T) {
	mgr := NewManager(newStore(t))
	ctx := context.Background()
	for _, id := range []string{"g2", "g1"} {
		if _, err := mgr.Save(ctx, outcome(id, false, "Actor 1"), time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	var ids []string
	if err := mgr.ForEach(ctx, func(r Record) error {
		ids = append(ids, r.GameID)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "g1" || ids[1] != "g2" {
		t.Fatalf("unexpected order: %v", ids)
	}

	stop := errors.New("stop")
	if err := mgr.ForEach(ctx, func(Record) error { return stop }); !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
}
