package density

import (
	"fmt"

	"github.com/go-sod/outlier/internal/geom"
)

var _ Estimator = ChainingDistance{}

// ChainingDistance is the average chaining distance of connectivity-based
// outlier factor. The set-based nearest path starts at the point itself and
// repeatedly extends to the closest remaining neighbor of any visited point;
// the i-th of r hops is weighted by r-i+1 and the sum normalized by r(r+1)/2.
type ChainingDistance struct{}

func (ChainingDistance) Name() string {
	return string(MethodCOF)
}

func (ChainingDistance) Kind() Kind {
	return KindDistance
}

func (ChainingDistance) Estimate(id int, hood Neighborhood) (float64, error) {
	set, err := neighbors(id, hood)
	if err != nil {
		return 0, err
	}
	r := len(set)
	mindists := make([]float64, r)
	for i := range set {
		mindists[i] = set[i].Distance
	}
	// members already on the trail
	visited := make([]bool, r)

	var acsum float64
	for j := r; j > 0; j-- {
		minpos := -1
		var mindist float64
		for i, d := range mindists {
			if visited[i] {
				continue
			}
			// later candidates win ties
			if minpos < 0 || d <= mindist {
				minpos, mindist = i, d
			}
		}
		if minpos < 0 {
			return 0, fmt.Errorf("unable to extend chaining trail of %d: %w", id, geom.ErrDegenerate)
		}
		acsum += mindist * float64(j)
		visited[minpos] = true

		for i, d := range mindists {
			if visited[i] {
				continue
			}
			nd, err := hood.Distance(set[minpos].ID, set[i].ID)
			if err != nil {
				return 0, fmt.Errorf("unable to compute chaining distance of %d: %w", id, err)
			}
			if nd < d {
				mindists[i] = nd
			}
		}
	}
	return acsum / (float64(r) * 0.5 * float64(r+1)), nil
}
