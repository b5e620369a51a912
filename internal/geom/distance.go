package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")
	// ErrDegenerate marks a distance that is undefined for the given input.
	// Callers test for it with errors.Is.
	ErrDegenerate = errors.New("degenerate distance")
)

// DistanceFn computes a non-negative dissimilarity between two vectors of equal
// dimension. Implementations are pure and symmetric.
type DistanceFn func(vec, vec1 []float64) (float64, error)

// ErrNaNDistance is returned by checked distance functions for a NaN result.
var ErrNaNDistance = fmt.Errorf("%w: distance is NaN", ErrDegenerate)

// Checked wraps fn so that a NaN result is reported as ErrNaNDistance. An
// overflowing distance stays +Inf, which still orders after every finite one.
func Checked(fn DistanceFn) DistanceFn {
	return func(vec, vec1 []float64) (float64, error) {
		d, err := fn(vec, vec1)
		if err != nil {
			return 0.0, err
		}
		if math.IsNaN(d) {
			return 0.0, ErrNaNDistance
		}
		return d, nil
	}
}

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	var d float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}

	for i := 0; i < len(vec); i++ {
		delta := vec[i] - vec1[i]
		d += delta * delta
	}
	return math.Sqrt(d), nil
}

func ChebyshevDistance(vec, vec1 []float64) (float64, error) {
	var absDistance, distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec1); i++ {
		absDistance = math.Abs(vec[i] - vec1[i])
		if distance < absDistance {
			distance = absDistance
		}
	}
	return distance, nil
}

func ManhattanDistance(vec, vec1 []float64) (float64, error) {
	var distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		distance += math.Abs(vec[i] - vec1[i])
	}
	return distance, nil
}

// MinkowskiDistance returns the L_p distance function. p must be at least 1
// for the result to be a metric.
func MinkowskiDistance(p float64) (DistanceFn, error) {
	if math.IsNaN(p) || p < 1 {
		return nil, fmt.Errorf("minkowski order must be >= 1, got %v", p)
	}
	return func(vec, vec1 []float64) (float64, error) {
		if len(vec) != len(vec1) {
			return 0.0, ErrDimNotEqual
		}
		return floats.Distance(vec, vec1, p), nil
	}, nil
}

// WeightedEuclideanDistance scales each squared coordinate difference by the
// matching weight.
func WeightedEuclideanDistance(weights []float64) (DistanceFn, error) {
	if err := validateWeights(weights); err != nil {
		return nil, err
	}
	w := append([]float64(nil), weights...)
	return func(vec, vec1 []float64) (float64, error) {
		if len(vec) != len(vec1) || len(vec) != len(w) {
			return 0.0, ErrDimNotEqual
		}
		var d float64
		for i := range vec {
			delta := vec[i] - vec1[i]
			d += w[i] * delta * delta
		}
		return math.Sqrt(d), nil
	}, nil
}

func validateWeights(weights []float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("weights must not be empty")
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("weight %d is invalid: %v", i, w)
		}
	}
	return nil
}
