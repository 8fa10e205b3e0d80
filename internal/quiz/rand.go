package quiz

import "math/rand/v2"

// Source supplies uniform random integers.
type Source interface {
	// IntN returns a uniform int in [0, n). It panics if n <= 0.
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource returns a Source backed by the math/rand/v2 top-level
// generator. It is safe for concurrent use.
func DefaultSource() Source {
	return globalSource{}
}

// NewSeededSource returns a deterministic Source. The result is not safe for
// concurrent use.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// shuffle permutes s uniformly in place (Fisher-Yates).
func shuffle[T any](rng Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// sample returns k elements of s chosen uniformly without replacement.
// s is not modified.
func sample[T any](rng Source, s []T, k int) []T {
	if k > len(s) {
		k = len(s)
	}
	pool := make([]T, len(s))
	copy(pool, s)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
