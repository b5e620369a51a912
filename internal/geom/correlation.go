package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrUndefinedCorrelation is returned when one of the vectors has zero
// (weighted) variance.
var ErrUndefinedCorrelation = fmt.Errorf("%w: correlation undefined for zero-variance vector", ErrDegenerate)

// PearsonCorrelation returns the (optionally weighted) Pearson correlation
// coefficient clamped to [-1, 1]. A nil weights slice means uniform weights.
func PearsonCorrelation(vec, vec1, weights []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	if weights != nil && len(weights) != len(vec) {
		return 0.0, ErrDimNotEqual
	}
	if constant(vec, weights) || constant(vec1, weights) {
		return 0.0, ErrUndefinedCorrelation
	}
	r := stat.Correlation(vec, vec1, weights)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0.0, ErrUndefinedCorrelation
	}
	return clamp(r, -1, 1), nil
}

func PearsonDistance(vec, vec1 []float64) (float64, error) {
	r, err := PearsonCorrelation(vec, vec1, nil)
	if err != nil {
		return 0.0, err
	}
	return 1 - r, nil
}

func SquaredPearsonDistance(vec, vec1 []float64) (float64, error) {
	r, err := PearsonCorrelation(vec, vec1, nil)
	if err != nil {
		return 0.0, err
	}
	return clamp(1-r*r, 0, 1), nil
}

func WeightedPearsonDistance(weights []float64) (DistanceFn, error) {
	if err := validateWeights(weights); err != nil {
		return nil, err
	}
	w := append([]float64(nil), weights...)
	return func(vec, vec1 []float64) (float64, error) {
		r, err := PearsonCorrelation(vec, vec1, w)
		if err != nil {
			return 0.0, err
		}
		return 1 - r, nil
	}, nil
}

// WeightedSquaredPearsonDistance computes 1 - r^2 with r the weighted Pearson
// correlation. Weights are neither normalized nor required to sum to one.
func WeightedSquaredPearsonDistance(weights []float64) (DistanceFn, error) {
	if err := validateWeights(weights); err != nil {
		return nil, err
	}
	w := append([]float64(nil), weights...)
	return func(vec, vec1 []float64) (float64, error) {
		r, err := PearsonCorrelation(vec, vec1, w)
		if err != nil {
			return 0.0, err
		}
		return clamp(1-r*r, 0, 1), nil
	}, nil
}

// constant reports whether all values carrying a positive weight are equal.
// A vector with no positive weight is constant as well.
func constant(vec, weights []float64) bool {
	first, seen := 0.0, false
	for i, x := range vec {
		if weights != nil && weights[i] <= 0 {
			continue
		}
		if !seen {
			first, seen = x, true
			continue
		}
		if x != first {
			return false
		}
	}
	return true
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
