package flipbook

import (
	"hash/fnv"
	"math/rand/v2"
)

// Random is a deterministic pseudo-random generator. Two generators created
// with the same seed produce the same sequence.
type Random struct {
	r *rand.Rand
}

// NewRandom returns a generator seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float returns a float in [from, to).
func (r *Random) Float(from, to float64) float64 {
	return from + (to-from)*r.r.Float64()
}

// Int returns an integer in [from, to). An empty range yields from.
func (r *Random) Int(from, to int) int {
	if to <= from {
		return from
	}
	return from + r.r.IntN(to-from)
}

// Gauss returns a normally distributed float.
func (r *Random) Gauss(mean, stdev float64) float64 {
	return mean + stdev*r.r.NormFloat64()
}

// Floats returns n floats in [from, to).
func (r *Random) Floats(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float(from, to)
	}
	return out
}

// Ints returns n integers in [from, to).
func (r *Random) Ints(n, from, to int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = r.Int(from, to)
	}
	return out
}

// Spawn returns an independent generator seeded from r.
func (r *Random) Spawn() *Random { return NewRandom(r.r.Uint64()) }

func seedOf(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}
