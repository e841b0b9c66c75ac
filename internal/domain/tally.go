package domain

// Tally - vote counts of a room at a point in time.
type Tally struct {
	// Counts - option ID to number of votes.
	Counts map[string]int
	// Tied - IDs of the options sharing the maximum count, in room order.
	// A single element means an unconditional winner.
	Tied []string
	Max  int
}

// TallyVotes computes the tally of a room. It has no side effects and
// is valid in every state.
func TallyVotes(room *Room) Tally {
	t := Tally{
		Counts: make(map[string]int, len(room.Options)),
		Tied:   []string{},
	}
	for _, o := range room.Options {
		n := len(o.Votes)
		t.Counts[o.ID] = n
		if n > t.Max {
			t.Max = n
		}
	}
	for _, o := range room.Options {
		if len(o.Votes) == t.Max {
			t.Tied = append(t.Tied, o.ID)
		}
	}
	return t
}

// Winner returns the leading option when it is unique.
func (t Tally) Winner() (string, bool) {
	if len(t.Tied) != 1 {
		return "", false
	}
	return t.Tied[0], true
}

// IsTie reports whether more than one option shares the maximum count,
// including the case where nobody voted.
func (t Tally) IsTie() bool {
	return len(t.Tied) > 1
}

// Total returns the number of votes cast across all options.
func (t Tally) Total() int {
	total := 0
	for _, n := range t.Counts {
		total += n
	}
	return total
}
