package core

import "math"

// TOUR_STD_DEV_COEFFICIENT ties the tour-length variance to the network
// size: the sampling distribution is Normal(difficulty, 0.1 * |N|).
const TOUR_STD_DEV_COEFFICIENT = 0.1

// TourLength samples the number of signatures required for a proof from
// Normal(difficulty, TOUR_STD_DEV_COEFFICIENT * networkSize) using a PRNG
// seeded with seed, rounded half-away-from-zero. The result is floored at
// networkSize so committee members are revisited on average.
func TourLength(seed uint64, difficulty float64, networkSize int) uint64 {
	rng := newRand(seed)
	stdDev := TOUR_STD_DEV_COEFFICIENT * float64(networkSize)
	sample := math.Round(rng.NormFloat64()*stdDev + difficulty)

	length := uint64(0)
	if sample > 0 {
		length = uint64(sample)
	}

	if minLength := uint64(networkSize); length < minLength {
		return minLength
	}
	return length
}
