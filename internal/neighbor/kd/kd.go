package kd

import (
	"context"
	"fmt"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/neighbor"
	"github.com/go-sod/outlier/pkg/container/kdtree"
)

var _ neighbor.Provider = (*kd)(nil)

// Provide returns a ProvideFn building kd-tree providers. The distance
// function must be bounded below by per-axis differences.
func Provide() neighbor.ProvideFn {
	return func(ctx context.Context, ds *dataset.Dataset, distFn geom.DistanceFn) (neighbor.Provider, error) {
		return NewKDAlg(ds, distFn)
	}
}

// item adapts a dataset point to kdtree.Item.
type item struct {
	dataset.Point
}

func (i item) Key() int {
	return i.ID
}

func (i item) Dim(idx int) float64 {
	return i.Vec.Dim(idx)
}

func (i item) Dimensions() int {
	return i.Vec.Dimensions()
}

func (i item) Points() []float64 {
	return i.Vec.Points()
}

func NewKDAlg(ds *dataset.Dataset, distFn geom.DistanceFn) (*kd, error) {
	distFn = geom.Checked(distFn)
	defined, degenerate, err := neighbor.Index(ds, distFn)
	if err != nil {
		return nil, fmt.Errorf("unable to build kd index: %w", err)
	}
	items := make([]kdtree.Item, len(defined))
	byID := make(map[int]item, len(defined))
	for i := range defined {
		items[i] = item{Point: defined[i]}
		byID[defined[i].ID] = item{Point: defined[i]}
	}
	tree := kdtree.New(func(vec, vec1 []float64) (float64, error) {
		return distFn(vec, vec1)
	})
	tree.Build(items...)
	return &kd{tree: tree, byID: byID, degenerate: degenerate}, nil
}

type kd struct {
	tree       *kdtree.Tree
	byID       map[int]item
	degenerate map[int]error
}

func (b *kd) Len() int {
	return b.tree.Len()
}

func (b *kd) KNN(ctx context.Context, id int, k int) (neighbor.Set, error) {
	if err, ok := b.degenerate[id]; ok {
		return nil, err
	}
	query, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", neighbor.ErrUnknownPoint, id)
	}
	if k < 0 {
		return nil, fmt.Errorf("negative k: %d", k)
	}
	if k == 0 || b.tree.Len() < 2 {
		return neighbor.Set{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// one extra slot for the query point itself
	results, err := b.tree.KNN(query, k+1)
	if err != nil {
		return nil, fmt.Errorf("unable compute KNN for %d: %w", id, err)
	}
	set := make(neighbor.Set, 0, k)
	for _, r := range results {
		if r.Item.Key() == id {
			continue
		}
		if len(set) == k {
			break
		}
		set = append(set, neighbor.Neighbor{ID: r.Item.Key(), Distance: r.Distance})
	}
	return set, nil
}
