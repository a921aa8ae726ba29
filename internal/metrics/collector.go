// Package metrics counts game activity for Prometheus and for end-of-run summaries.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"imitgame/internal/game"
	"imitgame/internal/message"
	"imitgame/internal/vote"
)

type Collector struct {
	messagesTotal    *prometheus.CounterVec
	votesTotal       *prometheus.CounterVec
	diagnosticsTotal *prometheus.CounterVec
	gamesTotal       *prometheus.CounterVec
	replyChars       prometheus.Histogram

	messages    atomic.Int64
	skipped     atomic.Int64
	votes       atomic.Int64
	parseFailed atomic.Int64
	games       atomic.Int64
	caught      atomic.Int64
}

// NewCollector registers the collectors on reg. Pass a fresh registry per
// collector; registering twice on one registry panics.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		messagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Transcript messages appended, by role.",
		}, []string{"role"}),
		votesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes parsed, by extraction strategy.",
		}, []string{"strategy"}),
		diagnosticsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Informational diagnostics emitted by games, by reason.",
		}, []string{"reason"}),
		gamesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_total",
			Help:      "Finished games, by vote mode and result.",
		}, []string{"mode", "result"}),
		replyChars: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_chars",
			Help:      "Length of participant replies in characters.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 9),
		}),
	}
}

// Observe is an events handler.
func (c *Collector) Observe(e game.Event) {
	switch e.Kind {
	case game.EventMessage:
		if e.Message == nil {
			return
		}
		c.messagesTotal.WithLabelValues(string(e.Message.Role)).Inc()
		if e.Message.Role == message.RoleAssistant {
			c.replyChars.Observe(float64(len(e.Message.Content)))
		}
		c.messages.Add(1)
	case game.EventVote:
		if e.Vote == nil {
			return
		}
		c.votesTotal.WithLabelValues(string(e.Vote.Strategy)).Inc()
		c.votes.Add(1)
		if e.Vote.Strategy == vote.StrategyFailed {
			c.parseFailed.Add(1)
		}
	case game.EventDiagnostic:
		c.diagnosticsTotal.WithLabelValues(string(e.Reason)).Inc()
		if e.Reason == game.ReasonEmptyReply {
			c.skipped.Add(1)
		}
	case game.EventOutcome:
		if e.Outcome == nil {
			return
		}
		result := "escaped"
		if e.Outcome.HumanCaught {
			result = "caught"
			c.caught.Add(1)
		}
		c.gamesTotal.WithLabelValues(string(e.Outcome.Mode), result).Inc()
		c.games.Add(1)
	}
}

type Snapshot struct {
	Messages        int64
	SkippedTurns    int64
	Votes           int64
	ParseFailedRate float64
	Games           int64
	CaughtRate      float64
}

func (c *Collector) Snapshot() Snapshot {
	votes := c.votes.Load()
	games := c.games.Load()
	return Snapshot{
		Messages:        c.messages.Load(),
		SkippedTurns:    c.skipped.Load(),
		Votes:           votes,
		ParseFailedRate: safeRate(c.parseFailed.Load(), votes),
		Games:           games,
		CaughtRate:      safeRate(c.caught.Load(), games),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"metrics: messages=%d skipped=%d votes=%d parse_failed=%.1f%% games=%d caught=%.1f%%",
		s.Messages,
		s.SkippedTurns,
		s.Votes,
		s.ParseFailedRate*100,
		s.Games,
		s.CaughtRate*100,
	)
}

func safeRate(n, d int64) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
