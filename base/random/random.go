// Package random isolates the randomness used by fallback generation so
// tests can supply a fixed seed and assert exact output.
package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields floats in [0, 1)
type Source interface {
	Float64() float64
}

type source struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a time-seeded source
func New() Source {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic source for the given seed
func NewSeeded(seed int64) Source {
	return &source{rnd: rand.New(rand.NewSource(seed))}
}

func (s *source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}
