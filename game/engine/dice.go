package engine

import (
	"math/rand/v2"
	"sync"
)

// DiceRoller supplies uniformly distributed die faces in [DiceMin, DiceMax].
type DiceRoller interface {
	Roll() int
}

// RandomRoller draws from the runtime-seeded global generator.
type RandomRoller struct{}

// NewRandomRoller returns the default production roller.
func NewRandomRoller() RandomRoller {
	return RandomRoller{}
}

// Roll returns a face between 1 and 6.
func (RandomRoller) Roll() int {
	return rand.IntN(DiceMax-DiceMin+1) + DiceMin
}

// SeededRoller produces a reproducible stream of rolls for a given seed.
type SeededRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRoller creates a roller whose sequence is fully determined by seed.
func NewSeededRoller(seed uint64) *SeededRoller {
	return &SeededRoller{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Roll returns the next face of the seeded stream.
func (r *SeededRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(DiceMax-DiceMin+1) + DiceMin
}

// SequenceRoller replays a fixed list of faces, wrapping around at the end.
// It exists for tests and scripted demos.
type SequenceRoller struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequenceRoller creates a roller that returns values in order.
func NewSequenceRoller(values ...int) *SequenceRoller {
	return &SequenceRoller{values: values}
}

// Roll returns the next scripted value.
func (r *SequenceRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return DiceMin
	}
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}
