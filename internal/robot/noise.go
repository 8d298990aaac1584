package robot

import (
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// lockedSource serializes access to a PCG generator so robots built without
// their own source can share it.
type lockedSource struct {
	mu  sync.Mutex
	pcg *rand.PCG
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pcg.Uint64()
}

func (s *lockedSource) seed(seed uint64) {
	s.mu.Lock()
	s.pcg.Seed(seed, seed)
	s.mu.Unlock()
}

var sharedSource = &lockedSource{pcg: rand.NewPCG(rand.Uint64(), rand.Uint64())}

// Seed reseeds the generator shared by every robot created without WithSource.
// Stochastic calls (Move, MotionUpdate, Sense) are reproducible after Seed
// when the calls happen in the same order.
func Seed(seed uint64) {
	sharedSource.seed(seed)
}

// sampler draws standard normal values.
type sampler struct {
	dist distuv.Normal
}

func newSampler(src rand.Source) sampler {
	return sampler{dist: distuv.Normal{Mu: 0, Sigma: 1, Src: src}}
}

func (s sampler) draw() float64 {
	return s.dist.Rand()
}

// drawN fills a new slice with n independent draws.
func (s sampler) drawN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.dist.Rand()
	}
	return out
}
