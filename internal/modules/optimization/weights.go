package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// normalizeSumFloor is the clamped sum below which weights reset to equal.
	normalizeSumFloor = 1e-8
	// WeightSumTolerance bounds |sum(w) - 1| in ValidateWeights.
	WeightSumTolerance = 1e-3
)

// NormalizeWeights projects weights onto the long-only simplex in place:
// negative (or non-finite) weights are clamped to zero and the rest rescaled
// to sum to 1. When nothing positive remains the weights become equal.
func NormalizeWeights(weights []float64) {
	if len(weights) == 0 {
		return
	}

	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			weights[i] = 0
		}
	}

	sum := floats.Sum(weights)
	if sum > normalizeSumFloor {
		for i := range weights {
			weights[i] /= sum
		}
		return
	}

	fillEqual(weights)
}

// EqualWeights returns n weights of 1/n.
func EqualWeights(n int) []float64 {
	w := make([]float64, n)
	fillEqual(w)
	return w
}

func fillEqual(weights []float64) {
	eq := 1 / float64(len(weights))
	for i := range weights {
		weights[i] = eq
	}
}

// ValidateWeights checks that weights are non-negative and sum to 1 within
// WeightSumTolerance.
func ValidateWeights(weights []float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidWeights)
	}

	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is not finite", ErrInvalidWeights, i)
		}
		if w < 0 {
			return fmt.Errorf("%w: weight %d is negative (%g)", ErrInvalidWeights, i, w)
		}
	}

	if sum := floats.Sum(weights); math.Abs(sum-1) >= WeightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.6f", ErrInvalidWeights, sum)
	}
	return nil
}
