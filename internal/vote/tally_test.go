package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyMajority(t *testing.T) {
	tally := CountVotes([]Vote{
		{Voter: "Actor 1", VotedFor: "Actor 3"},
		{Voter: "Actor 2", VotedFor: "Actor 4"},
		{Voter: "Actor 3", VotedFor: "Actor 4"},
	}, nil)

	winner, ok := tally.Winner()
	require.True(t, ok)
	assert.Equal(t, "Actor 4", winner)
	assert.Equal(t, []Count{{Label: "Actor 3", Votes: 1}, {Label: "Actor 4", Votes: 2}}, tally.Counts())
}

func TestTallyTieBreaksByFirstInsertion(t *testing.T) {
	forward := []Vote{{Voter: "A", VotedFor: "Actor 1"}, {Voter: "B", VotedFor: "Actor 2"}}
	backward := []Vote{{Voter: "A", VotedFor: "Actor 2"}, {Voter: "B", VotedFor: "Actor 1"}}

	for i := 0; i < 20; i++ {
		w, _ := CountVotes(forward, nil).Winner()
		require.Equal(t, "Actor 1", w)
		w, _ = CountVotes(backward, nil).Winner()
		require.Equal(t, "Actor 2", w)
	}
}

func TestTallyEmpty(t *testing.T) {
	_, ok := NewTally().Winner()
	assert.False(t, ok)
	assert.Empty(t, NewTally().Counts())
}

func TestTallyKeepFilter(t *testing.T) {
	votes := []Vote{
		{Voter: "Actor 1", VotedFor: ParseError},
		{Voter: "Actor 2", VotedFor: ParseError},
		{Voter: "Actor 3", VotedFor: "Actor 2"},
	}
	withSentinels := CountVotes(votes, nil)
	w, _ := withSentinels.Winner()
	assert.Equal(t, ParseError, w)

	without := CountVotes(votes, func(v Vote) bool { return !v.IsSentinel() })
	w, _ = without.Winner()
	assert.Equal(t, "Actor 2", w)
	assert.Equal(t, 0, without.Get(ParseError))
	assert.Equal(t, 1, without.Len())
}
