package rng

import "math/rand"

// Stream is a seeded pseudorandom stream shared by every trial of a batch.
// It is not safe for concurrent use; a batch consumes it sequentially.
type Stream struct {
	seed int64
	src  *countingSource
	rand *rand.Rand
}

// New creates a stream positioned at the start of the sequence for seed.
func New(seed int64) *Stream {
	src := &countingSource{src: rand.NewSource(seed).(rand.Source64)}
	return &Stream{
		seed: seed,
		src:  src,
		rand: rand.New(src),
	}
}

// Seed returns the seed the stream was created with.
func (s *Stream) Seed() int64 {
	return s.seed
}

// Rand returns the generator backed by the stream. Every value drawn from it
// advances the stream.
func (s *Stream) Rand() *rand.Rand {
	return s.rand
}

// Draws reports how many raw values have been consumed so far.
func (s *Stream) Draws() uint64 {
	return s.src.n
}

type countingSource struct {
	src rand.Source64
	n   uint64
}

func (c *countingSource) Int63() int64 {
	c.n++
	return c.src.Int63()
}

func (c *countingSource) Uint64() uint64 {
	c.n++
	return c.src.Uint64()
}

func (c *countingSource) Seed(seed int64) {
	c.src.Seed(seed)
	c.n = 0
}
