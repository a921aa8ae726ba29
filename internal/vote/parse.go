package vote

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultLabelPrefix = "Actor"

	failedReasoning   = "could not extract vote"
	fragmentReasoning = "(extracted)"
	labelExcerptRunes = 100
	failureExcerpt    = 200
)

var (
	objectFenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")
	fenceRe       = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)\\s*(.*?)```")
	reasoningRe   = regexp.MustCompile(`(?i)"reasoning"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Parser extracts votes for one label scheme ("<prefix> <n>").
// The zero value is not usable; call NewParser.
type Parser struct {
	prefix  string
	labelRe *regexp.Regexp
	voteRe  *regexp.Regexp
}

func NewParser(labelPrefix string) *Parser {
	prefix := strings.TrimSpace(labelPrefix)
	if prefix == "" {
		prefix = DefaultLabelPrefix
	}
	q := regexp.QuoteMeta(prefix)
	return &Parser{
		prefix:  prefix,
		labelRe: regexp.MustCompile(`(?i)\b` + q + `\s+(\d+)\b`),
		voteRe:  regexp.MustCompile(`(?i)"vote"\s*:\s*"\s*` + q + `\s+(\d+)\s*"`),
	}
}

// Label returns the canonical identity label for index n.
func (p *Parser) Label(n int) string {
	return p.prefix + " " + strconv.Itoa(n)
}

func (p *Parser) Parse(voter, raw string) Vote {
	return p.ParseDetailed(voter, raw).Vote
}

// ParseDetailed runs the extraction cascade. It never fails: when nothing can be
// recovered the result carries the ParseError sentinel and StrategyFailed.
func (p *Parser) ParseDetailed(voter, raw string) Result {
	text := strings.TrimSpace(raw)

	if data, ok := p.structured(workingText(text)); ok {
		target, seat := p.targetFromValue(data["vote"])
		return Result{
			Vote: Vote{
				Voter:     voter,
				VotedFor:  target,
				Reasoning: stringValue(data["reasoning"]),
			},
			Strategy: StrategyJSON,
			Seat:     seat,
		}
	}

	if m := p.voteRe.FindStringSubmatch(text); m != nil {
		reasoning := fragmentReasoning
		if rm := reasoningRe.FindStringSubmatch(text); rm != nil {
			reasoning = unescape(rm[1])
		}
		return Result{
			Vote:     Vote{Voter: voter, VotedFor: p.prefix + " " + trimZeros(m[1]), Reasoning: reasoning},
			Strategy: StrategyFragments,
			Seat:     true,
		}
	}

	if m := p.labelRe.FindStringSubmatch(text); m != nil {
		return Result{
			Vote: Vote{
				Voter:     voter,
				VotedFor:  p.prefix + " " + trimZeros(m[1]),
				Reasoning: fmt.Sprintf("(extracted from: %s...)", clip(text, labelExcerptRunes)),
			},
			Strategy: StrategyLabel,
			Seat:     true,
		}
	}

	return Result{
		Vote:     Vote{Voter: voter, VotedFor: ParseError, Reasoning: failedReasoning},
		Strategy: StrategyFailed,
		Excerpt:  clip(raw, failureExcerpt),
	}
}

// workingText narrows a response to the content of its most relevant fenced block.
// An object directly enclosed by a fence wins, then a block labelled as JSON, then
// the first non-empty block.
func workingText(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	if m := objectFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	var first string
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		if strings.EqualFold(m[1], "json") {
			return body
		}
		if first == "" {
			first = body
		}
	}
	if first != "" {
		return first
	}
	return text
}

// structured decodes text as a single JSON object. When the whole text is not an
// object, the first balanced object inside it is accepted only if it carries a vote key.
func (p *Parser) structured(text string) (map[string]any, bool) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err == nil && data != nil {
		return data, true
	}
	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, false
	}
	data = nil
	if err := json.Unmarshal([]byte(obj), &data); err != nil || data == nil {
		return nil, false
	}
	if _, ok := data["vote"]; !ok {
		return nil, false
	}
	return data, true
}

// targetFromValue normalizes a JSON vote value. seat is true only when the
// value is exactly one identity label or a positive seat number.
func (p *Parser) targetFromValue(v any) (target string, seat bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return Unknown, false
		}
		if m := p.labelRe.FindStringSubmatch(s); m != nil && len(m[0]) == len(s) {
			return p.prefix + " " + trimZeros(m[1]), true
		}
		return s, false
	case float64:
		if val > 0 && val == math.Trunc(val) && val < math.MaxInt32 {
			return p.Label(int(val)), true
		}
		return Unknown, false
	default:
		return Unknown, false
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func extractJSONObject(s string) (string, error) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", errors.New("json object start not found")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errors.New("json object end not found")
}

func unescape(s string) string {
	if out, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return out
	}
	return s
}

func trimZeros(digits string) string {
	if n, err := strconv.Atoi(digits); err == nil {
		return strconv.Itoa(n)
	}
	return digits
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
