package jitter

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Rand produces uniformly distributed integers in a bounded range.
type Rand interface {
	// NextInt returns a uniform integer in [low, high], both inclusive.
	NextInt(low, high int) int
}

// MathRand is the production Rand. Each instance owns a PCG generator
// seeded from the operating system's entropy source.
type MathRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMathRand returns a freshly seeded MathRand.
func NewMathRand() *MathRand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms since Go 1.24.
		panic("jitter: cannot seed random source: " + err.Error())
	}
	return NewSeededRand(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	)
}

// NewSeededRand returns a MathRand with a fixed seed. Two instances created
// with the same seed yield the same sequence.
func NewSeededRand(seed1, seed2 uint64) *MathRand {
	return &MathRand{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// NextInt returns a uniform integer in [low, high].
// It panics if high < low.
func (m *MathRand) NextInt(low, high int) int {
	if high < low {
		panic("jitter: invalid range")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return low + m.rng.IntN(high-low+1)
}

// Sequence is a deterministic Rand that replays Values in order, wrapping
// around when exhausted. Range arguments are ignored.
type Sequence struct {
	mu     sync.Mutex
	Values []int
	next   int
}

// NewSequence returns a Sequence replaying the given values.
func NewSequence(values ...int) *Sequence {
	return &Sequence{Values: values}
}

// NextInt returns the next value of the sequence.
func (s *Sequence) NextInt(low, high int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Values) == 0 {
		return low
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}

// Calls returns how many values have been drawn so far.
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

var (
	_ Rand = (*MathRand)(nil)
	_ Rand = (*Sequence)(nil)
)
