package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields uniform random integers for winner selection. The draw
// settlement algorithm depends only on this interface, so a deployment
// that needs verifiable randomness can substitute a VRF-backed source
// without touching settlement logic.
type Source interface {
	// Intn returns a uniform integer in [0, n). n must be > 0.
	Intn(n int) int
}

type mathSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource creates a math/rand backed source with an explicit seed.
// Tests use a fixed seed to make draws reproducible.
func NewSource(seed int64) Source {
	return &mathSource{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded creates a source seeded from the wall clock.
func NewTimeSeeded() Source {
	return NewSource(time.Now().UnixNano())
}

func (s *mathSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
