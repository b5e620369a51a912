// Package density implements local density estimators over precomputed
// k-nearest-neighbor sets.
package density

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/neighbor"
)

// ErrNoNeighbors is returned for a point whose estimate cannot be computed
// because it has no neighbors.
var ErrNoNeighbors = errors.New("no neighbors")

// Kind tells how an estimate relates to outlierness.
type Kind int

const (
	// KindDistance estimates grow as the neighborhood gets sparser.
	KindDistance Kind = iota
	// KindDensity estimates grow as the neighborhood gets denser.
	KindDensity
)

func (k Kind) String() string {
	switch k {
	case KindDistance:
		return "distance"
	case KindDensity:
		return "density"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Neighborhood gives estimators read access to the neighbor sets of a run
// and to the distance function they were computed with.
type Neighborhood interface {
	Neighbors(id int) (neighbor.Set, bool)
	Distance(a, b int) (float64, error)
}

type Estimator interface {
	Name() string
	Kind() Kind
	Estimate(id int, hood Neighborhood) (float64, error)
}

type MethodType string

const (
	MethodCOF     MethodType = "COF"
	MethodLOF     MethodType = "LOF"
	MethodKNNMean MethodType = "KNN_MEAN"
)

func ParseMethodType(s string) (MethodType, error) {
	m := MethodType(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case MethodCOF, MethodLOF, MethodKNNMean:
		return m, nil
	default:
		return "", fmt.Errorf("unknown method: %s", s)
	}
}

func EstimatorFor(m MethodType) (Estimator, error) {
	switch m {
	case MethodCOF:
		return ChainingDistance{}, nil
	case MethodLOF:
		return Reachability{}, nil
	case MethodKNNMean:
		return MeanDistance{}, nil
	default:
		return nil, fmt.Errorf("unknown method: %s", m)
	}
}

func neighbors(id int, hood Neighborhood) (neighbor.Set, error) {
	set, ok := hood.Neighbors(id)
	if !ok {
		return nil, fmt.Errorf("point %d: %w", id, neighbor.ErrUnknownPoint)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("point %d: %w", id, ErrNoNeighbors)
	}
	for _, n := range set {
		if math.IsNaN(n.Distance) {
			return nil, fmt.Errorf("point %d, neighbor %d: %w", id, n.ID, geom.ErrNaNDistance)
		}
	}
	return set, nil
}
