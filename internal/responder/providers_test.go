package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"imitgame/internal/llm"
	"imitgame/internal/message"
)

type fakeChat struct {
	got  llm.ChatRequest
	resp llm.ChatResponse
	err  error
}

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeGen struct {
	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
	text     string
	err      error
}

func (f *fakeGen) Generate(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	f.model = model
	f.contents = contents
	f.cfg = cfg
	return f.text, f.err
}

func sampleTranscript() []message.Message {
	return []message.Message{
		message.System("You are Actor 2."),
		{Role: message.RoleUser, Content: "The topic is: tea. Share your thoughts.", SpeakerID: message.SpeakerSystem},
		{Role: message.RoleAssistant, Content: "green tea is overrated", SpeakerID: "Actor 1"},
	}
}

func TestOpenRouterMapsSpeakersToUserTurns(t *testing.T) {
	chat := &fakeChat{resp: llm.ChatResponse{Content: "nah"}}
	o := NewOpenRouter(chat, "anthropic/claude-haiku-4.5", 0)
	if o.Name() != "claude-haiku-4.5" {
		t.Fatalf("unexpected name %q", o.Name())
	}
	got, err := o.Respond(context.Background(), sampleTranscript(), "Actor 2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "nah" {
		t.Fatalf("unexpected reply %q", got)
	}
	if chat.got.MaxTokens != DefaultMaxTokens || chat.got.Model != "anthropic/claude-haiku-4.5" {
		t.Fatalf("unexpected request: %+v", chat.got)
	}
	want := []llm.ChatMessage{
		{Role: "system", Content: "You are Actor 2."},
		{Role: "user", Content: "System: The topic is: tea. Share your thoughts."},
		{Role: "user", Content: "Actor 1: green tea is overrated"},
	}
	if len(chat.got.Messages) != len(want) {
		t.Fatalf("unexpected messages: %+v", chat.got.Messages)
	}
	for i := range want {
		if chat.got.Messages[i] != want[i] {
			t.Fatalf("message %d: got %+v want %+v", i, chat.got.Messages[i], want[i])
		}
	}
}

func TestOpenRouterPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	o := NewOpenRouter(&fakeChat{err: boom}, "m", 0)
	if _, err := o.Respond(context.Background(), sampleTranscript(), "Actor 2"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestGeminiPrefillBuildsContinuation(t *testing.T) {
	gen := &fakeGen{text: "lol same"}
	g := NewGeminiPrefill(gen, GeminiPrefillOptions{})
	if g.Name() != "gemini-3-flash-preview:prefill" {
		t.Fatalf("unexpected name %q", g.Name())
	}
	got, err := g.Respond(context.Background(), sampleTranscript(), "Actor 2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "lol same" {
		t.Fatalf("unexpected reply %q", got)
	}
	if gen.model != DefaultGeminiPrefillModel {
		t.Fatalf("unexpected model %q", gen.model)
	}
	if len(gen.contents) != 2 || gen.contents[0].Parts[0].Text != "cat transcript.txt" || gen.contents[1].Role != "model" {
		t.Fatalf("unexpected contents: %+v", gen.contents)
	}
	prefill := gen.contents[1].Parts[0].Text
	if !strings.HasPrefix(prefill, "[Actor 2 is ") {
		t.Fatalf("missing persona header: %q", prefill)
	}
	if !strings.HasSuffix(prefill, "\n\nActor 1: green tea is overrated\n\nActor 2:") {
		t.Fatalf("unexpected prefill tail: %q", prefill)
	}
	if strings.Contains(prefill, "You are Actor 2.") {
		t.Fatalf("system messages must not be in the prefill: %q", prefill)
	}
	cfg := gen.cfg
	if cfg.MaxOutputTokens != 256 || len(cfg.StopSequences) != 4 {
		t.Fatalf("unexpected generation config: %+v", cfg)
	}
}

func TestGeminiPrefillVoteIsStrictJSON(t *testing.T) {
	gen := &fakeGen{text: "```json\n{\"vote\": \"actor 3\", \"reasoning\": \"typos\", \"confidence\": 0.8}\n```"}
	g := NewGeminiPrefill(gen, GeminiPrefillOptions{Model: "gemini-x"})
	transcript := append(sampleTranscript(), message.System("VOTING TIME"))
	got, err := g.RespondVote(context.Background(), transcript, "Actor 2")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"reasoning":"typos","vote":"Actor 3"}` {
		t.Fatalf("unexpected vote %q", got)
	}
	if gen.model != "gemini-x" {
		t.Fatalf("vote should use the named model, got %q", gen.model)
	}
	if gen.cfg.ResponseMIMEType != "application/json" || gen.cfg.MaxOutputTokens != 4096 {
		t.Fatalf("unexpected generation config: %+v", gen.cfg)
	}
	sys := gen.cfg.SystemInstruction.Parts[0].Text
	if sys != "You are Actor 2.\n\nVOTING TIME" {
		t.Fatalf("unexpected system instruction %q", sys)
	}
	body := gen.contents[0].Parts[0].Text
	if !strings.HasPrefix(body, judgeHeader) || !strings.Contains(body, "Actor 1: green tea is overrated") {
		t.Fatalf("unexpected vote prompt %q", body)
	}
}

func TestGeminiPrefillVoteReturnsRawWhenMalformed(t *testing.T) {
	gen := &fakeGen{text: "  probably Actor 1  "}
	g := NewGeminiPrefill(gen, GeminiPrefillOptions{})
	got, err := g.RespondVote(context.Background(), sampleTranscript(), "Judge")
	if err != nil {
		t.Fatal(err)
	}
	if got != "probably Actor 1" {
		t.Fatalf("unexpected vote %q", got)
	}
}

func TestFromSpec(t *testing.T) {
	f := NewFactory(FactoryOptions{OpenRouterKey: "or-key", GeminiKey: "g-key", In: strings.NewReader("")})
	cases := []struct {
		spec string
		name string
	}{
		{"human", "Human"},
		{"gemini-prefill", "gemini-3-flash-preview:prefill"},
		{"gemini:prefill", "gemini-3-flash-preview:prefill"},
		{"gemini:prefill:gemini-2.5-pro", "gemini-2.5-pro:prefill"},
		{"openrouter:minimax/minimax-m2.1", "minimax-m2.1"},
		{"anthropic/claude-opus-4.5", "claude-opus-4.5"},
		{"gpt-4o", "gpt-4o"},
	}
	for _, tc := range cases {
		r, err := f.FromSpec(tc.spec)
		if err != nil {
			t.Fatalf("%s: %v", tc.spec, err)
		}
		if r.Name() != tc.name {
			t.Fatalf("%s: unexpected name %q", tc.spec, r.Name())
		}
	}
	for _, bad := range []string{"", "openrouter:", "gemini:flash", "gemini:prefill:"} {
		if _, err := f.FromSpec(bad); !errors.Is(err, ErrUnknownSpec) {
			t.Fatalf("%q: expected ErrUnknownSpec, got %v", bad, err)
		}
	}
	if f.Human() != f.Human() {
		t.Fatal("human responder should be shared")
	}
}

func TestFromSpecNeedsCredentials(t *testing.T) {
	f := NewFactory(FactoryOptions{})
	if _, err := f.FromSpec("openai/gpt-5.1-chat"); err == nil {
		t.Fatal("expected missing OpenRouter key error")
	}
	if _, err := f.FromSpec("gemini-prefill"); err == nil {
		t.Fatal("expected missing Gemini key error")
	}
	rs, err := f.FromSpecs([]string{"human"})
	if err != nil || len(rs) != 0 {
		t.Fatalf("human entries should be dropped without touching credentials: %v %v", rs, err)
	}
}
