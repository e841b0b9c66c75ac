// Package tiebreak draws a single winner among tied options.
//
// Every method maps draws from a random.Source onto candidate indexes:
//
//   - coin: one uniform bit, only for exactly two candidates.
//   - dice: a uniform face d in [1,6], candidate (d-1) mod N. For N that
//     does not divide 6 (4 and 5) lower indexes are favoured, e.g. with
//     four candidates the odds are 2/6, 2/6, 1/6, 1/6, and above six
//     candidates the trailing ones can never win.
//   - spinner: a uniform angle in [0,360), candidate floor(angle/(360/N)).
//     Exactly uniform for any N.
//
// A Selector keeps no state between draws, so injecting a deterministic
// source yields deterministic winners.
package tiebreak

import (
	"errors"
	"fmt"

	"github.com/Xausdorf/decision-room/internal/domain"
	"github.com/Xausdorf/decision-room/internal/random"
)

var ErrNotApplicable = errors.New("tiebreaker not applicable")

const (
	diceFaces     = 6
	spinnerDegree = 360.0
	minCandidates = 2
)

type Selector struct {
	src random.Source
}

func NewSelector(src random.Source) *Selector {
	return &Selector{src: src}
}

// Select returns exactly one of candidates according to method.
func (s *Selector) Select(method domain.Tiebreaker, candidates []string) (string, error) {
	n := len(candidates)
	if n < minCandidates {
		return "", fmt.Errorf("%w: %s needs at least %d candidates, got %d", ErrNotApplicable, method, minCandidates, n)
	}

	var idx int
	switch method {
	case domain.TiebreakerCoin:
		if n != 2 {
			return "", fmt.Errorf("%w: coin needs exactly 2 candidates, got %d", ErrNotApplicable, n)
		}
		idx = s.src.IntN(2)
	case domain.TiebreakerDice:
		idx = DiceIndex(s.src.IntN(diceFaces)+1, n)
	case domain.TiebreakerSpinner:
		idx = SpinnerIndex(s.src.Float64()*spinnerDegree, n)
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownTiebreaker, method)
	}
	return candidates[idx], nil
}

// DiceIndex maps a die face in [1,6] to a candidate index.
func DiceIndex(face, n int) int {
	return (face - 1) % n
}

// SpinnerIndex maps an angle in [0,360) to the segment it points at.
func SpinnerIndex(angle float64, n int) int {
	idx := int(angle / (spinnerDegree / float64(n)))
	// Guards against rounding at the very end of the wheel.
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Applicable reports whether method can be used with n tied candidates.
func Applicable(method domain.Tiebreaker, n int) bool {
	if n < minCandidates {
		return false
	}
	if method == domain.TiebreakerCoin {
		return n == 2
	}
	return true
}
