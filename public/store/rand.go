package store

import (
	"math/rand"
	"sync"
)

// Rand is the randomness source behind every simulated trigger
type Rand interface {
	// Intn returns a uniform integer in [0, n)
	Intn(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewRand returns a goroutine-safe Rand seeded with seed
func NewRand(seed int64) Rand {
	return &lockedRand{src: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// SequenceRand replays fixed values, wrapping around at the end. Each value
// is reduced modulo n.
type SequenceRand struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequenceRand creates a Rand that returns values in order
func NewSequenceRand(values ...int) *SequenceRand {
	return &SequenceRand{values: values}
}

// Intn returns the next value of the sequence reduced into [0, n)
func (r *SequenceRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.values) == 0 || n <= 0 {
		return 0
	}
	v := r.values[r.next%len(r.values)]
	r.next++

	v %= n
	if v < 0 {
		v += n
	}
	return v
}
