package scheduler

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the source of randomness used by the selector and quiz generator.
// It is injectable so tests can supply a seeded or scripted source and assert
// distributional properties without flakiness. *math/rand.Rand satisfies it.
type Rand interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64

	// Intn returns a pseudo-random number in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// lockedRand wraps a *rand.Rand with a mutex so it can be shared across
// request goroutines. math/rand sources are not safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRand returns a concurrency-safe Rand seeded from the current time.
func NewLockedRand() Rand {
	return &lockedRand{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
