package density

import (
	"fmt"
	"math"

	"github.com/go-sod/outlier/internal/geom"
)

var _ Estimator = Reachability{}

// Reachability is the local reachability density of LOF: the inverse of the
// mean reachability distance max(kdist(o), d(p, o)) over the neighbors o of p.
// It is +Inf when all reachability distances are zero.
type Reachability struct{}

func (Reachability) Name() string {
	return string(MethodLOF)
}

func (Reachability) Kind() Kind {
	return KindDensity
}

func (Reachability) Estimate(id int, hood Neighborhood) (float64, error) {
	set, err := neighbors(id, hood)
	if err != nil {
		return 0, err
	}
	var rSum float64
	for _, o := range set {
		oSet, ok := hood.Neighbors(o.ID)
		if !ok {
			return 0, fmt.Errorf("unable to compute reachability of %d, neighbor %d: %w", id, o.ID, ErrNoNeighbors)
		}
		kdist := oSet.KDistance()
		if math.IsNaN(kdist) {
			return 0, fmt.Errorf("unable to compute reachability of %d, neighbor %d: %w", id, o.ID, geom.ErrNaNDistance)
		}
		rSum += math.Max(kdist, o.Distance)
	}
	if rSum == 0 {
		return math.Inf(1), nil
	}
	return float64(len(set)) / rSum, nil
}
