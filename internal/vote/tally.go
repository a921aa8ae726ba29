package vote

// Count is one row of a tally.
type Count struct {
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

// Tally counts votes per target and remembers the order in which targets were
// first seen. That order breaks ties.
type Tally struct {
	order  []string
	counts map[string]int
}

func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// CountVotes tallies every vote accepted by keep. A nil keep accepts all votes.
func CountVotes(votes []Vote, keep func(Vote) bool) *Tally {
	t := NewTally()
	for _, v := range votes {
		if keep != nil && !keep(v) {
			continue
		}
		t.Add(v.VotedFor)
	}
	return t
}

func (t *Tally) Add(label string) {
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

func (t *Tally) Len() int {
	return len(t.order)
}

func (t *Tally) Get(label string) int {
	return t.counts[label]
}

// Counts returns the rows in first-insertion order.
func (t *Tally) Counts() []Count {
	out := make([]Count, 0, len(t.order))
	for _, label := range t.order {
		out = append(out, Count{Label: label, Votes: t.counts[label]})
	}
	return out
}

// Winner returns the label with the most votes. On equal counts the label that
// was recorded first wins. ok is false for an empty tally.
func (t *Tally) Winner() (label string, ok bool) {
	best := 0
	for _, l := range t.order {
		if n := t.counts[l]; n > best {
			best = n
			label = l
		}
	}
	return label, best > 0
}
