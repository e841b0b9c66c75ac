package random

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	req := require.New(t)
	seen := make(map[string]struct{})
	for range 200 {
		code, err := NewCode()
		req.NoError(err)
		req.True(IsValidCode(code), "bad code %q", code)
		seen[code] = struct{}{}
	}
	// 36^6 possible codes, collisions among 200 draws would point at a broken generator.
	req.Greater(len(seen), 195)
}

func TestNormalizeCode(t *testing.T) {
	req := require.New(t)
	req.Equal("AB12CD", NormalizeCode("  ab12cd "))
	req.True(IsValidCode(NormalizeCode("ab12cd")))
	req.False(IsValidCode("AB12C"))
	req.False(IsValidCode("AB12C!"))
}

func TestSourceRanges(t *testing.T) {
	req := require.New(t)
	src := NewSource()
	for range 1000 {
		n := src.IntN(6)
		req.GreaterOrEqual(n, 0)
		req.Less(n, 6)

		f := src.Float64()
		req.GreaterOrEqual(f, 0.0)
		req.Less(f, 1.0)
	}
}

func TestSourceConcurrentUse(t *testing.T) {
	src := NewSource()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				_ = src.IntN(360)
				_ = src.Float64()
			}
		}()
	}
	wg.Wait()
}
