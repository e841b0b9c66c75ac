// Package random provides the uniform random port used by tie-breaks and
// the generator of room join codes.
package random

import (
	"sync"

	"github.com/pion/randutil"
)

// Source - uniform random provider. Implementations must be safe for
// concurrent use, draws for distinct rooms may happen in parallel.
type Source interface {
	// IntN returns a uniform integer in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a uniform real in [0, 1).
	Float64() float64
}

type mathSource struct {
	mu  sync.Mutex
	gen randutil.MathRandomGenerator
}

// NewSource returns a Source backed by a pseudo-random generator seeded
// from the operating system's cryptographic source.
func NewSource() Source {
	return &mathSource{gen: randutil.NewMathRandomGenerator()}
}

func (s *mathSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen.Intn(n)
}

func (s *mathSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	// 53 high bits fill the float64 mantissa exactly.
	return float64(s.gen.Uint64()>>11) / (1 << 53)
}
