package brute

import (
	"context"
	"fmt"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/neighbor"
	"github.com/go-sod/outlier/pkg/pqueue"
)

var _ neighbor.Provider = (*brute)(nil)

// Provide returns a ProvideFn building exhaustive-scan providers.
func Provide() neighbor.ProvideFn {
	return func(ctx context.Context, ds *dataset.Dataset, distFn geom.DistanceFn) (neighbor.Provider, error) {
		return NewBruteAlg(ds, distFn)
	}
}

// NewBruteAlg indexes ds for exhaustive k-NN queries.
func NewBruteAlg(ds *dataset.Dataset, distFn geom.DistanceFn) (*brute, error) {
	distFn = geom.Checked(distFn)
	defined, degenerate, err := neighbor.Index(ds, distFn)
	if err != nil {
		return nil, fmt.Errorf("unable to build brute index: %w", err)
	}
	b := &brute{
		distFunc:   distFn,
		data:       defined,
		index:      make(map[int]int, len(defined)),
		degenerate: degenerate,
	}
	for i := range defined {
		b.index[defined[i].ID] = i
	}
	return b, nil
}

type brute struct {
	data       []dataset.Point
	index      map[int]int
	degenerate map[int]error
	distFunc   geom.DistanceFn
}

func (b *brute) Len() int {
	return len(b.data)
}

func (b *brute) KNN(ctx context.Context, id int, k int) (neighbor.Set, error) {
	if err, ok := b.degenerate[id]; ok {
		return nil, err
	}
	pos, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", neighbor.ErrUnknownPoint, id)
	}
	if k < 0 {
		return nil, fmt.Errorf("negative k: %d", k)
	}
	if k == 0 {
		return neighbor.Set{}, nil
	}
	return b.knn(ctx, b.data[pos], k)
}

func (b *brute) knn(ctx context.Context, query dataset.Point, n int) (neighbor.Set, error) {
	pq := pqueue.New(pqueue.WithCap(uint(n)))
	for _, item := range b.data {
		if item.ID == query.ID {
			continue
		}
		distance, err := b.distFunc(query.Vec, item.Vec)
		if err != nil {
			return nil, fmt.Errorf(
				"unable to compute distance between %d and %d: %w",
				query.ID, item.ID,
				err,
			)
		}
		pq.Push(item.ID, distance, item.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	knn := make(neighbor.Set, pq.Len())
	for i := range knn {
		id, distance := pq.Seek(i)
		knn[i] = neighbor.Neighbor{ID: id.(int), Distance: distance}
	}
	return knn, nil
}
