package vote

import (
	"encoding/json"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestParseCascade(t *testing.T) {
	p := NewParser("")
	cases := []struct {
		name      string
		raw       string
		votedFor  string
		reasoning string
		strategy  Strategy
	}{
		{
			name:      "plain json",
			raw:       `{"reasoning": "x", "vote": "Actor 2"}`,
			votedFor:  "Actor 2",
			reasoning: "x",
			strategy:  StrategyJSON,
		},
		{
			name:      "fenced json",
			raw:       "```json\n{\"reasoning\": \"x\", \"vote\": \"Actor 2\"}\n```",
			votedFor:  "Actor 2",
			reasoning: "x",
			strategy:  StrategyJSON,
		},
		{
			name:     "prose around fenced json",
			raw:      "I think it's Actor 3 because ```json\n{\"vote\":\"Actor 3\"}```",
			votedFor: "Actor 3",
			strategy: StrategyJSON,
		},
		{
			name:      "unlabelled fence",
			raw:       "```\n{\"reasoning\": \"too polite\", \"vote\": \"Actor 1\"}\n```",
			votedFor:  "Actor 1",
			reasoning: "too polite",
			strategy:  StrategyJSON,
		},
		{
			name:     "nested fences",
			raw:      "```markdown\n```json\n{\"vote\":\"Actor 2\"}\n```\n```",
			votedFor: "Actor 2",
			strategy: StrategyJSON,
		},
		{
			name:      "object embedded in prose",
			raw:       `My answer: {"reasoning":"short replies","vote":"Actor 1"} thanks`,
			votedFor:  "Actor 1",
			reasoning: "short replies",
			strategy:  StrategyJSON,
		},
		{
			name:      "missing vote key",
			raw:       `{"reasoning":"hmm"}`,
			votedFor:  Unknown,
			reasoning: "hmm",
			strategy:  StrategyJSON,
		},
		{
			name:     "blank vote",
			raw:      `{"vote":"   ","reasoning":""}`,
			votedFor: Unknown,
			strategy: StrategyJSON,
		},
		{
			name:     "numeric vote",
			raw:      `{"vote": 4}`,
			votedFor: "Actor 4",
			strategy: StrategyJSON,
		},
		{
			name:     "lowercase label",
			raw:      `{"vote": "actor 01"}`,
			votedFor: "Actor 1",
			strategy: StrategyJSON,
		},
		{
			name:      "trailing comma falls back to fragments",
			raw:       `Sure! {"reasoning": "they typo a lot", "vote": "Actor 4",}`,
			votedFor:  "Actor 4",
			reasoning: "they typo a lot",
			strategy:  StrategyFragments,
		},
		{
			name:      "fragment without reasoning",
			raw:       `"VOTE": "Actor 2"`,
			votedFor:  "Actor 2",
			reasoning: "(extracted)",
			strategy:  StrategyFragments,
		},
		{
			name:      "bare label",
			raw:       "I'm fairly sure it is actor 3, honestly.",
			votedFor:  "Actor 3",
			reasoning: "(extracted from: I'm fairly sure it is actor 3, honestly....)",
			strategy:  StrategyLabel,
		},
		{
			name:      "nothing to extract",
			raw:       "no idea, sorry",
			votedFor:  ParseError,
			reasoning: "could not extract vote",
			strategy:  StrategyFailed,
		},
		{
			name:      "empty",
			raw:       "",
			votedFor:  ParseError,
			reasoning: "could not extract vote",
			strategy:  StrategyFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.ParseDetailed("Actor 9", tc.raw)
			if got.Voter != "Actor 9" {
				t.Fatalf("voter=%q", got.Voter)
			}
			if got.VotedFor != tc.votedFor {
				t.Fatalf("voted_for: got=%q want=%q", got.VotedFor, tc.votedFor)
			}
			if got.Reasoning != tc.reasoning {
				t.Fatalf("reasoning: got=%q want=%q", got.Reasoning, tc.reasoning)
			}
			if got.Strategy != tc.strategy {
				t.Fatalf("strategy: got=%q want=%q", got.Strategy, tc.strategy)
			}
		})
	}
}

func TestParseBareLabelExcerptIsTruncated(t *testing.T) {
	raw := "Actor 2 " + strings.Repeat("a", 300)
	got := NewParser("").ParseDetailed("Actor 1", raw)
	if got.Strategy != StrategyLabel {
		t.Fatalf("unexpected strategy %q", got.Strategy)
	}
	want := "(extracted from: " + raw[:100] + "...)"
	if got.Reasoning != want {
		t.Fatalf("unexpected reasoning %q", got.Reasoning)
	}
}

func TestParseFailureKeepsExcerpt(t *testing.T) {
	raw := strings.Repeat("z", 500)
	got := NewParser("").ParseDetailed("Actor 1", raw)
	if got.Strategy != StrategyFailed {
		t.Fatalf("unexpected strategy %q", got.Strategy)
	}
	if len(got.Excerpt) != 200 {
		t.Fatalf("expected 200 char excerpt, got %d", len(got.Excerpt))
	}
}

func TestParseCustomPrefix(t *testing.T) {
	p := NewParser("Player")
	if got := p.Parse("Player 1", `{"vote":"player 3"}`); got.VotedFor != "Player 3" {
		t.Fatalf("unexpected vote %q", got.VotedFor)
	}
	if got := p.Parse("Player 1", "probably Actor 2"); got.VotedFor != ParseError {
		t.Fatalf("foreign prefix should not match, got %q", got.VotedFor)
	}
	if p.Label(5) != "Player 5" {
		t.Fatalf("unexpected label %q", p.Label(5))
	}
}

func TestWellFormed(t *testing.T) {
	p := NewParser("")
	if !p.ParseDetailed("J", `{"vote":"Actor 1"}`).WellFormed() {
		t.Fatal("expected well formed")
	}
	if p.ParseDetailed("J", `{"reasoning":"?"}`).WellFormed() {
		t.Fatal("missing vote is not well formed")
	}
	if p.ParseDetailed("J", "Actor 1").WellFormed() {
		t.Fatal("bare label is not well formed")
	}
	got := p.ParseDetailed("J", `{"vote": "Actor 2 because quiet"}`)
	if got.Strategy != StrategyJSON || got.VotedFor != "Actor 2 because quiet" {
		t.Fatalf("unexpected parse: %+v", got)
	}
	if got.WellFormed() {
		t.Fatal("vote naming no seat is not well formed")
	}
	if !p.ParseDetailed("J", `{"vote": " actor 02 "}`).WellFormed() {
		t.Fatal("padded label should be well formed")
	}
	if !p.ParseDetailed("J", `{"vote": 3}`).WellFormed() {
		t.Fatal("numeric seat should be well formed")
	}
}

func TestParseIsTotal(t *testing.T) {
	p := NewParser("")
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.OneOf(
			rapid.String(),
			rapid.StringMatching("(```(json)?\n?){0,3}[{}\"a-z: ,0-9]{0,40}(```){0,3}"),
			rapid.StringMatching(`\{"vote": ?"?[A-Za-z]{0,6} ?[0-9]{0,3}"?[,}]{0,2}`),
		).Draw(rt, "raw")
		got := p.ParseDetailed("Actor 1", raw)
		if got.Voter != "Actor 1" {
			rt.Fatalf("voter lost: %q", got.Voter)
		}
		if got.VotedFor == "" {
			rt.Fatalf("empty target for %q", raw)
		}
		if got.Strategy == StrategyFailed && got.VotedFor != ParseError {
			rt.Fatalf("failed parse must use sentinel, got %q", got.VotedFor)
		}
	})
}

func TestParseWellFormedRoundTrip(t *testing.T) {
	p := NewParser("")
	rapid.Check(t, func(rt *rapid.T) {
		reasoning := rapid.StringMatching(`[a-zA-Z0-9,.!?']{0,40}`).Draw(rt, "reasoning")
		target := p.Label(rapid.IntRange(1, 12).Draw(rt, "n"))
		raw, err := json.Marshal(map[string]string{"reasoning": reasoning, "vote": target})
		if err != nil {
			rt.Fatal(err)
		}
		text := string(raw)
		if rapid.Bool().Draw(rt, "fenced") {
			text = "Here you go:\n```json\n" + text + "\n```"
		}
		got := p.Parse("Actor 1", text)
		if got.VotedFor != target || got.Reasoning != reasoning {
			rt.Fatalf("round trip mismatch: %+v from %q", got, text)
		}
	})
}
