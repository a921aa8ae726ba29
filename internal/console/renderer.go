// Package console renders game events and stored games for a terminal.
package console

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"imitgame/internal/game"
	"imitgame/internal/history"
	"imitgame/internal/message"
	"imitgame/internal/vote"
)

var (
	speakerColors = []lipgloss.Color{
		lipgloss.Color("#A78BFA"), // purple
		lipgloss.Color("#60A5FA"), // blue
		lipgloss.Color("#FBBF24"), // yellow
		lipgloss.Color("#F472B6"), // pink
		lipgloss.Color("#FB923C"), // orange
		lipgloss.Color("#34D399"), // teal
	}
	mutedColor   = lipgloss.Color("#9CA3AF")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#F87171")
	borderColor  = lipgloss.Color("#6B7280")
)

// Renderer prints events as they arrive. It is not safe for concurrent use,
// which matches the synchronous delivery of game events.
type Renderer struct {
	out      io.Writer
	lg       *lipgloss.Renderer
	speakers map[string]lipgloss.Style

	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	banner  lipgloss.Style
}

func New(out io.Writer) *Renderer {
	lg := lipgloss.NewRenderer(out)
	return &Renderer{
		out:      out,
		lg:       lg,
		speakers: make(map[string]lipgloss.Style),
		title:    lg.NewStyle().Bold(true).Foreground(speakerColors[0]),
		muted:    lg.NewStyle().Foreground(mutedColor).Italic(true),
		success:  lg.NewStyle().Bold(true).Foreground(successColor),
		failure:  lg.NewStyle().Bold(true).Foreground(errorColor),
		banner: lg.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1),
	}
}

// Handle is an event subscriber.
func (r *Renderer) Handle(e game.Event) {
	switch e.Kind {
	case game.EventMessage:
		if e.Message != nil {
			r.printMessage(*e.Message)
		}
	case game.EventVote:
		if e.Vote != nil {
			r.printVote(*e.Vote)
		}
	case game.EventDiagnostic:
		fmt.Fprintln(r.out, r.muted.Render("  "+e.Notice))
	case game.EventOutcome:
		if e.Outcome != nil {
			r.PrintOutcome(*e.Outcome)
		}
	}
}

func (r *Renderer) speaker(label string) lipgloss.Style {
	if s, ok := r.speakers[label]; ok {
		return s
	}
	c := speakerColors[len(r.speakers)%len(speakerColors)]
	s := r.lg.NewStyle().Bold(true).Foreground(c)
	r.speakers[label] = s
	return s
}

func (r *Renderer) printMessage(m message.Message) {
	if m.SpeakerID == message.SpeakerSystem || m.SpeakerID == "" {
		fmt.Fprintf(r.out, "\n%s\n\n", r.title.Render(m.Content))
		return
	}
	fmt.Fprintf(r.out, "%s %s\n\n", r.speaker(m.SpeakerID).Render(m.SpeakerID+":"), m.Content)
}

func (r *Renderer) printVote(v vote.Result) {
	line := fmt.Sprintf("%s votes for %s", r.speaker(v.Voter).Render(v.Voter), v.VotedFor)
	if v.Strategy != vote.StrategyJSON {
		line += " " + r.muted.Render("("+string(v.Strategy)+")")
	}
	fmt.Fprintln(r.out, line)
	if s := strings.TrimSpace(v.Reasoning); s != "" {
		fmt.Fprintln(r.out, r.muted.Render("  "+s))
	}
}

// PrintOutcome prints the result banner of a finished game.
func (r *Renderer) PrintOutcome(out game.Outcome) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", r.title.Render("RESULTS"))
	b.WriteString("Seats:\n")
	for _, s := range out.Seats {
		name := s.Name
		if s.IsHuman {
			name += " (human)"
		}
		fmt.Fprintf(&b, "  %s  %s\n", s.Label, name)
	}
	if len(out.Tally) > 0 {
		b.WriteString("\nTally:\n")
		for _, c := range out.Tally {
			fmt.Fprintf(&b, "  %s  %d\n", c.Label, c.Votes)
		}
	}
	b.WriteString("\n")
	if out.MostVoted != "" {
		fmt.Fprintf(&b, "Most voted: %s\n", out.MostVoted)
	} else {
		b.WriteString("Most voted: nobody\n")
	}
	fmt.Fprintf(&b, "The human was %s. ", out.HumanLabel)
	if out.HumanCaught {
		b.WriteString(r.failure.Render("HUMAN CAUGHT"))
	} else {
		b.WriteString(r.success.Render("HUMAN ESCAPED"))
	}
	fmt.Fprintln(r.out, r.banner.Render(b.String()))
}

// PrintSummaries lists stored games, newest first.
func (r *Renderer) PrintSummaries(list []history.Summary) {
	if len(list) == 0 {
		fmt.Fprintln(r.out, r.muted.Render("no games recorded"))
		return
	}
	for _, s := range list {
		result := r.success.Render("escaped")
		if s.HumanCaught {
			result = r.failure.Render("caught")
		}
		fmt.Fprintf(r.out, "%s  %s  %-5s  %s  %s\n",
			s.ID, s.FinishedAt.Local().Format("2006-01-02 15:04"), s.Mode, result, s.Topic)
	}
}

// PrintRecord replays a stored game: transcript, votes, then the result banner.
func (r *Renderer) PrintRecord(rec history.Record) {
	fmt.Fprintf(r.out, "%s %s\n", r.muted.Render("game"), rec.GameID)
	for _, m := range rec.Transcript {
		r.printMessage(m)
	}
	for _, v := range rec.Votes {
		r.printVote(vote.Result{Vote: v, Strategy: vote.StrategyJSON})
	}
	fmt.Fprintln(r.out)
	r.PrintOutcome(rec.Outcome)
}

func (r *Renderer) PrintStats(s history.Stats) {
	fmt.Fprintf(r.out, "games: %d  caught: %d  escaped: %d\n", s.Games, s.HumanCaught, s.HumanEscaped)
	fmt.Fprintf(r.out, "votes: %d  parse errors: %d\n", s.Votes, s.ParseErrors)
	if len(s.ByMode) > 0 {
		fmt.Fprintf(r.out, "by mode: %s\n", joinCounts(s.ByMode))
	}
	if len(s.SuspectedAI) > 0 {
		fmt.Fprintf(r.out, "AI mistaken for human: %s\n", joinCounts(s.SuspectedAI))
	}
}

func joinCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}
