// Package vote turns free-form model output into structured votes and tallies them.
package vote

const (
	// Unknown marks a vote whose structured payload parsed but named nobody.
	Unknown = "Unknown"
	// ParseError marks a vote from which nothing structured could be recovered.
	ParseError = "Parse Error"
)

type Vote struct {
	Voter     string `json:"voter"`
	VotedFor  string `json:"voted_for"`
	Reasoning string `json:"reasoning"`
}

// IsSentinel reports whether the vote names one of the placeholder targets
// instead of a participant.
func (v Vote) IsSentinel() bool {
	return v.VotedFor == Unknown || v.VotedFor == ParseError
}

// Strategy names the parse step that produced a vote.
type Strategy string

const (
	StrategyJSON      Strategy = "json"
	StrategyFragments Strategy = "fragments"
	StrategyLabel     Strategy = "label"
	StrategyFailed    Strategy = "failed"
)

// Result is a parsed vote plus how it was recovered.
type Result struct {
	Vote
	Strategy Strategy `json:"strategy"`
	// Excerpt holds the start of the raw response when Strategy is StrategyFailed.
	Excerpt string `json:"excerpt,omitempty"`
	// Seat is set when VotedFor is exactly an identity label.
	Seat bool `json:"-"`
}

// WellFormed reports whether the response was a structured object whose vote
// is exactly one identity label.
func (r Result) WellFormed() bool {
	return r.Strategy == StrategyJSON && r.Seat && !r.IsSentinel()
}
