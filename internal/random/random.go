// Package random provides the bounded integer draws used by attack tables.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Domain is the roll range used by attack tables (basis points).
const Domain = 10000

// Source draws integers uniformly in [0, Domain).
type Source interface {
	Draw() int
}

// Random is a seeded Source. It is not safe for concurrent use; every
// simulation replica owns its own instance.
type Random struct {
	rng  *rand.Rand
	seed int64
}

// New returns a Random seeded with seed.
func New(seed int64) *Random {
	return &Random{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Draw returns an integer in [0, Domain).
func (r *Random) Draw() int {
	return r.rng.Intn(Domain)
}

// Float64 returns a float in [0, 1).
func (r *Random) Float64() float64 {
	return r.rng.Float64()
}

// Between returns a float in [min, max]. If max <= min, min is returned.
func (r *Random) Between(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.rng.Float64()*(max-min)
}

// Seed reports the seed this source was created with.
func (r *Random) Seed() int64 {
	return r.seed
}

// ReplicaSeed derives the seed of one replica from a batch base seed.
func ReplicaSeed(base int64, replica int) int64 {
	return base + int64(replica)*7919
}

// IterationSeed derives the seed of one iteration inside a replica.
// Iteration 0 uses the replica seed; later iterations are mixed so that
// they cannot land on the seed of a neighbouring replica.
func IterationSeed(replicaSeed int64, iteration int) int64 {
	if iteration == 0 {
		return replicaSeed
	}
	return int64(mix64(uint64(replicaSeed) + uint64(iteration)*0x9e3779b97f4a7c15))
}

// mix64 is the splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NewSeed generates a high-entropy seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Fixed is a Source returning a constant roll. Intended for tests.
type Fixed int

// Draw returns the fixed roll.
func (f Fixed) Draw() int {
	return int(f)
}
