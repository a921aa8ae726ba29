package responder

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"imitgame/internal/message"
)

func TestRespondVoteFallsBackToRespond(t *testing.T) {
	r := plain{reply: "from respond"}
	got, err := RespondVote(context.Background(), r, nil, "Actor 1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "from respond" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestFuncUsesVoteOverride(t *testing.T) {
	f := Func{
		DisplayName: "f",
		Reply: func(context.Context, []message.Message, string) (string, error) {
			return "chat", nil
		},
		Vote: func(context.Context, []message.Message, string) (string, error) {
			return "vote", nil
		},
	}
	got, _ := RespondVote(context.Background(), f, nil, "Actor 1")
	if got != "vote" {
		t.Fatalf("expected vote override, got %q", got)
	}
	masked := Masked{DisplayName: "fake-human", Inner: f}
	if masked.Name() != "fake-human" {
		t.Fatalf("unexpected name %q", masked.Name())
	}
	got, _ = RespondVote(context.Background(), masked, nil, "Actor 1")
	if got != "vote" {
		t.Fatalf("masked responder should forward vote mode, got %q", got)
	}
}

func TestHumanReadsTrimmedLines(t *testing.T) {
	var out bytes.Buffer
	h := NewHuman("", strings.NewReader("  hello there  \nActor 2\n"), &out)
	if h.Name() != "Human" {
		t.Fatalf("unexpected default name %q", h.Name())
	}
	got, err := h.Respond(context.Background(), nil, "Actor 4")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello there" {
		t.Fatalf("unexpected reply %q", got)
	}
	if !strings.Contains(out.String(), "--- Your turn as Actor 4 ---") {
		t.Fatalf("prompt not written: %q", out.String())
	}
	got, err = h.RespondVote(context.Background(), nil, "Actor 4")
	if err != nil || got != "Actor 2" {
		t.Fatalf("unexpected vote %q err=%v", got, err)
	}
	if _, err := h.Respond(context.Background(), nil, "Actor 4"); err == nil {
		t.Fatal("expected error once input is exhausted")
	}
}

func TestHumanHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHuman("You", strings.NewReader("hi\n"), nil)
	if _, err := h.Respond(ctx, nil, "Actor 1"); err == nil {
		t.Fatal("expected context error")
	}
}

type plain struct{ reply string }

func (p plain) Name() string { return "plain" }

func (p plain) Respond(context.Context, []message.Message, string) (string, error) {
	return p.reply, nil
}
