package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"imitgame/internal/message"
	"imitgame/internal/prompt"
	"imitgame/internal/vote"
)

const (
	DefaultGeminiModel        = "gemini-3-flash-preview"
	DefaultGeminiPrefillModel = "gemini-3-pro-preview"

	judgeHeader = "Here is the conversation transcript. Analyze it carefully and identify the human."
)

// Generator is the Gemini generateContent call, satisfied by *llm.GeminiClient.
type Generator interface {
	Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}

// GeminiPrefill makes the model continue a chat log instead of answering as an
// assistant: the whole transcript is placed in the model turn, ending with the
// speaker's label. Votes use ordinary JSON generation instead.
type GeminiPrefill struct {
	gen          Generator
	model        string
	prefillModel string
	prompts      *prompt.Set
	parser       *vote.Parser
}

type GeminiPrefillOptions struct {
	Model        string
	PrefillModel string
	Prompts      *prompt.Set
	LabelPrefix  string
}

func NewGeminiPrefill(gen Generator, opts GeminiPrefillOptions) *GeminiPrefill {
	g := &GeminiPrefill{
		gen:          gen,
		model:        strings.TrimSpace(opts.Model),
		prefillModel: strings.TrimSpace(opts.PrefillModel),
		prompts:      opts.Prompts,
		parser:       vote.NewParser(opts.LabelPrefix),
	}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	if g.prefillModel == "" {
		g.prefillModel = DefaultGeminiPrefillModel
	}
	if g.prompts == nil {
		g.prompts = prompt.Default()
	}
	return g
}

func (g *GeminiPrefill) Name() string {
	return g.model + ":prefill"
}

func (g *GeminiPrefill) Respond(ctx context.Context, transcript []message.Message, label string) (string, error) {
	lines := []string{fmt.Sprintf("[%s is %s]", label, strings.TrimSpace(g.prompts.Persona()))}
	lines = append(lines, transcriptLines(transcript)...)
	prefill := strings.Join(lines, "\n\n") + "\n\n" + label + ":"

	contents := []*genai.Content{
		textContent("user", "cat transcript.txt"),
		textContent("model", prefill),
	}
	return g.gen.Generate(ctx, g.prefillModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: textContent("", g.prompts.TranscriptSim()),
		MaxOutputTokens:   256,
		StopSequences:     []string{"\n\nActor", "\nActor ", "\n\nSystem", "\nSystem:"},
	})
}

// RespondVote asks for a JSON verdict. System messages become the system
// instruction; a well-formed answer is returned re-serialized as strict JSON and
// anything else is returned as-is for the caller's parser.
func (g *GeminiPrefill) RespondVote(ctx context.Context, transcript []message.Message, label string) (string, error) {
	var system, instructions []string
	var attributed []message.Message
	for _, m := range transcript {
		switch {
		case m.Role == message.RoleSystem:
			system = append(system, m.Content)
		case m.SpeakerID != "":
			attributed = append(attributed, m)
		default:
			instructions = append(instructions, m.Content)
		}
	}
	head := judgeHeader
	if len(instructions) > 0 {
		head = strings.Join(instructions, "\n\n")
	}
	contents := []*genai.Content{
		textContent("user", head+"\n\n"+strings.Join(transcriptLines(attributed), "\n\n")),
	}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}
	if len(system) > 0 {
		cfg.SystemInstruction = textContent("", strings.Join(system, "\n\n"))
	}

	text, err := g.gen.Generate(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	res := g.parser.ParseDetailed(label, text)
	if !res.WellFormed() {
		return text, nil
	}
	strict, err := json.Marshal(struct {
		Reasoning string `json:"reasoning"`
		Vote      string `json:"vote"`
	}{res.Reasoning, res.VotedFor})
	if err != nil {
		return text, nil
	}
	return string(strict), nil
}

// transcriptLines renders non-system messages as "<speaker>: <content>".
func transcriptLines(transcript []message.Message) []string {
	out := make([]string, 0, len(transcript))
	for _, m := range transcript {
		if m.Role == message.RoleSystem {
			continue
		}
		out = append(out, m.Speaker()+": "+m.Content)
	}
	return out
}
