package geom

import (
	"fmt"
	"strings"
)

type DistanceFuncType string

const (
	DistanceFuncTypeEuclidean              DistanceFuncType = "EUCLIDEAN"
	DistanceFuncTypeChebyshev              DistanceFuncType = "CHEBYSHEV"
	DistanceFuncTypeManhattan              DistanceFuncType = "MANHATTAN"
	DistanceFuncTypeMinkowski              DistanceFuncType = "MINKOWSKI"
	DistanceFuncTypeWeightedEuclidean      DistanceFuncType = "WEIGHTED_EUCLIDEAN"
	DistanceFuncTypePearson                DistanceFuncType = "PEARSON"
	DistanceFuncTypeSquaredPearson         DistanceFuncType = "SQUARED_PEARSON"
	DistanceFuncTypeWeightedPearson        DistanceFuncType = "WEIGHTED_PEARSON"
	DistanceFuncTypeWeightedSquaredPearson DistanceFuncType = "WEIGHTED_SQUARED_PEARSON"
)

// DistanceParams carries the fixed parameters some distance types need.
type DistanceParams struct {
	Weights    []float64
	MinkowskiP float64
}

// ParseDistanceFuncType accepts the type name in any case.
func ParseDistanceFuncType(s string) (DistanceFuncType, error) {
	t := DistanceFuncType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case DistanceFuncTypeEuclidean, DistanceFuncTypeChebyshev, DistanceFuncTypeManhattan,
		DistanceFuncTypeMinkowski, DistanceFuncTypeWeightedEuclidean, DistanceFuncTypePearson,
		DistanceFuncTypeSquaredPearson, DistanceFuncTypeWeightedPearson, DistanceFuncTypeWeightedSquaredPearson:
		return t, nil
	}
	return "", fmt.Errorf("unknown distance function: %s", s)
}

// Weighted reports whether the type requires a weight vector.
func (t DistanceFuncType) Weighted() bool {
	switch t {
	case DistanceFuncTypeWeightedEuclidean, DistanceFuncTypeWeightedPearson, DistanceFuncTypeWeightedSquaredPearson:
		return true
	}
	return false
}

// AxisBounded reports whether the per-axis absolute difference is a lower
// bound of the distance, which is what kd-tree pruning relies on.
func (t DistanceFuncType) AxisBounded() bool {
	switch t {
	case DistanceFuncTypeEuclidean, DistanceFuncTypeChebyshev, DistanceFuncTypeManhattan, DistanceFuncTypeMinkowski:
		return true
	}
	return false
}

func DistanceFuncFor(d DistanceFuncType, params DistanceParams) (DistanceFn, error) {
	switch d {
	case DistanceFuncTypeChebyshev:
		return ChebyshevDistance, nil
	case DistanceFuncTypeEuclidean:
		return EuclideanDistance, nil
	case DistanceFuncTypeManhattan:
		return ManhattanDistance, nil
	case DistanceFuncTypeMinkowski:
		return MinkowskiDistance(params.MinkowskiP)
	case DistanceFuncTypeWeightedEuclidean:
		return WeightedEuclideanDistance(params.Weights)
	case DistanceFuncTypePearson:
		return PearsonDistance, nil
	case DistanceFuncTypeSquaredPearson:
		return SquaredPearsonDistance, nil
	case DistanceFuncTypeWeightedPearson:
		return WeightedPearsonDistance(params.Weights)
	case DistanceFuncTypeWeightedSquaredPearson:
		return WeightedSquaredPearsonDistance(params.Weights)
	default:
		return nil, fmt.Errorf("unknown distance function: %s", d)
	}
}
