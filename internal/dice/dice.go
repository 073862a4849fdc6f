// Package dice implements the rolling logic behind the courtroom chat
// commands.
package dice

import (
	"errors"
	"math/rand"
)

// MaxSides is the historical ceiling for a single roll.
const MaxSides = 11037

// MaxCount bounds how many dice one request may roll.
const MaxCount = 20

// ErrInvalidSides indicates the requested die size is out of range.
var ErrInvalidSides = errors.New("sides must be between 1 and 11037")

// ErrInvalidCount indicates the requested number of rolls is out of range.
var ErrInvalidCount = errors.New("count must be between 1 and 20")

// Roll rolls count dice with the given number of sides.
//
// Roll is deterministic with respect to seed: the same seed, sides, and
// count always produce the same values, in the same order. Each value lies
// in [1, sides].
func Roll(sides, count int, seed int64) ([]int, error) {
	if sides < 1 || sides > MaxSides {
		return nil, ErrInvalidSides
	}
	if count < 1 || count > MaxCount {
		return nil, ErrInvalidCount
	}

	rng := rand.New(rand.NewSource(seed))
	values := make([]int, count)
	for i := range values {
		values[i] = rng.Intn(sides) + 1
	}
	return values, nil
}

// Coinflip returns "heads" or "tails", deterministic with respect to seed.
func Coinflip(seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	if rng.Intn(2) == 0 {
		return "heads"
	}
	return "tails"
}
