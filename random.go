package optionlab

import (
	"golang.org/x/exp/rand"
)

// NewStream returns a seeded random stream. Every stochastic operation in
// this package takes its stream as an argument; there is no package level
// source.
func NewStream(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// substreams derives n independent streams from rng. The seeds are drawn
// sequentially so the result depends only on the state of rng.
func substreams(rng *rand.Rand, n int) []*rand.Rand {
	streams := make([]*rand.Rand, n)
	for i := range streams {
		streams[i] = NewStream(rng.Uint64())
	}
	return streams
}
