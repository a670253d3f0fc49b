package sim

import (
	"math/rand"
	"time"
)

// RNG is the single random source shared by the engine, the market model,
// the event generator and the growth controller. Every stochastic decision
// in a run goes through it, so a fixed seed reproduces the full event
// sequence. math/rand (not crypto/rand) is intentional: simulations must be
// replayable from a seed.
type RNG struct {
	seed int64
	r    *rand.Rand
}

// NewRNG builds a seeded source. A zero seed picks one from the wall clock
// (recorded, so the run can still be replayed afterwards).
func NewRNG(seed int64) *RNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RNG{seed: seed, r: rand.New(rand.NewSource(seed))} //nolint:gosec // deterministic simulation source
}

// Seed returns the seed actually in use.
func (g *RNG) Seed() int64 { return g.seed }

// Float64 returns a uniform sample in [0,1).
func (g *RNG) Float64() float64 { return g.r.Float64() }

// Intn returns a uniform int in [0,n). n <= 0 returns 0.
func (g *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return g.r.Intn(n)
}

// Int63n returns a uniform int64 in [0,n). n <= 0 returns 0.
func (g *RNG) Int63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return g.r.Int63n(n)
}

// Range returns a uniform sample in [min,max).
func (g *RNG) Range(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + g.r.Float64()*(max-min)
}

// Between returns a uniform int in [min,max] inclusive.
func (g *RNG) Between(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.r.Intn(max-min+1)
}

// Chance returns true with probability p.
func (g *RNG) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return g.r.Float64() < p
}

// Jitter returns 1±spread, e.g. Jitter(0.03) is uniform in [0.97, 1.03).
func (g *RNG) Jitter(spread float64) float64 {
	return 1 + (g.r.Float64()*2-1)*spread
}

// WeightedIndex returns an index into weights, each index drawn with
// probability proportional to its weight. Non-positive total weight
// returns 0.
func (g *RNG) WeightedIndex(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	draw := g.r.Float64() * total
	var cum float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if draw < cum {
			return i
		}
	}
	return len(weights) - 1
}

// WeightedChoice returns the choice whose cumulative weight covers a
// uniform draw. Empty choices return "".
func (g *RNG) WeightedChoice(choices []string, weights []float64) string {
	if len(choices) == 0 {
		return ""
	}
	if len(weights) != len(choices) {
		return choices[g.Intn(len(choices))]
	}
	return choices[g.WeightedIndex(weights)]
}
