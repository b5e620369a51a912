// Package neighbor defines the k-nearest-neighbour query contract the scoring
// engine consumes, and the shared helpers its providers build on.
package neighbor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/geom"
)

var (
	ErrUnknownPoint = errors.New("unknown point")
	// ErrShortfall is returned when a provider answers with fewer neighbors
	// than the dataset can supply.
	ErrShortfall = errors.New("provider returned fewer neighbors than available")
)

type Neighbor struct {
	ID       int
	Distance float64
}

// Set is ordered by ascending distance, ties by ascending ID, and never
// contains the query point itself.
type Set []Neighbor

// KDistance is the distance to the farthest neighbor, or 0 for an empty set.
func (s Set) KDistance() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Distance
}

func (s Set) IDs() []int {
	ids := make([]int, len(s))
	for i := range s {
		ids[i] = s[i].ID
	}
	return ids
}

// Less is the total order neighbor sets are sorted by.
func Less(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// Provider answers k-nearest-neighbor queries over one dataset under a fixed
// distance function. KNN returns min(k, Len()-1) neighbors. Points that are
// degenerate under the distance function are not indexed; querying one
// returns an error matching geom.ErrDegenerate.
type Provider interface {
	Len() int
	KNN(ctx context.Context, id int, k int) (Set, error)
}

// ProvideFn builds a provider for a dataset.
type ProvideFn func(ctx context.Context, ds *dataset.Dataset, distFn geom.DistanceFn) (Provider, error)

// Index splits the dataset into points usable with distFn and degenerate ones.
// A point is degenerate when its distance to itself is undefined or infinite.
func Index(ds *dataset.Dataset, distFn geom.DistanceFn) ([]dataset.Point, map[int]error, error) {
	distFn = geom.Checked(distFn)
	defined := make([]dataset.Point, 0, ds.Len())
	degenerate := map[int]error{}
	for i := 0; i < ds.Len(); i++ {
		p := ds.At(i)
		d, err := distFn(p.Vec, p.Vec)
		if err == nil && math.IsInf(d, 0) {
			err = fmt.Errorf("%w: infinite self distance", geom.ErrDegenerate)
		}
		if err != nil {
			if errors.Is(err, geom.ErrDegenerate) {
				degenerate[p.ID] = fmt.Errorf("point %d: %w", p.ID, err)
				continue
			}
			return nil, nil, fmt.Errorf("unable to compute distance for point %d: %w", p.ID, err)
		}
		defined = append(defined, p)
	}
	return defined, degenerate, nil
}

// Expected is the neighbor count a correct provider returns for k.
func Expected(p Provider, k int) int {
	n := p.Len() - 1
	if k < n {
		return k
	}
	if n < 0 {
		return 0
	}
	return n
}
