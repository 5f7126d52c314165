package weather

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"strings"
)

// Seed derives a reproducible generator seed from an ordered tuple of
// string parts. The parts are joined with "|" (never present in any part),
// hashed with SHA-256, and the first eight bytes of the digest are read as
// a big-endian integer.
//
// A cryptographic hash is used so that seeds for adjacent inputs (e.g.
// consecutive dates) show no visible correlation players could exploit.
func Seed(parts ...string) int64 {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// NewRand returns a generator seeded from the given parts. The draw
// sequence is positional: every call site must take the same number of
// draws in the same order, or every later result for that seed shifts.
func NewRand(parts ...string) *rand.Rand {
	return rand.New(rand.NewSource(Seed(parts...)))
}

// weightedPick draws a uniform integer in [1, sum of weights] and returns
// the option whose cumulative range contains it. Exactly one draw is
// consumed; callers needing flavor text take their own separate draw.
func weightedPick(rng *rand.Rand, options []Option) Option {
	total := 0
	for _, o := range options {
		total += o.Weight
	}

	roll := rng.Intn(total) + 1
	acc := 0
	for _, o := range options {
		acc += o.Weight
		if roll <= acc {
			return o
		}
	}
	return options[len(options)-1]
}
