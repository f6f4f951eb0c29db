package core

import (
	"encoding/binary"
	"math/rand"

	"github.com/ambula-labs/ambula/crypto"
)

// splitmix64 is the SplitMix64 generator (Steele, Lea, Flood 2014) used as
// the protocol PRNG. Its output for a given seed is identical on every
// platform, which both the committee selection and the tour-length
// sampling depend on.
type splitmix64 struct {
	state uint64
}

func (s *splitmix64) Uint64() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (s *splitmix64) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

func (s *splitmix64) Seed(seed int64) {
	s.state = uint64(seed)
}

// newRand returns a *rand.Rand drawing from a SplitMix64 stream seeded
// with seed. Both Uint64 draws and NormFloat64 samples taken from it are
// reproducible across platforms.
func newRand(seed uint64) *rand.Rand {
	return rand.New(&splitmix64{state: seed})
}

// SeedFromSignature projects a Signature to the PRNG seed it commits to:
// the big-endian interpretation of its first 8 bytes.
func SeedFromSignature(sig crypto.Signature) uint64 {
	var b [8]byte
	copy(b[:], sig)
	return binary.BigEndian.Uint64(b[:])
}
