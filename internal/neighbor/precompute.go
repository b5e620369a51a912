package neighbor

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/go-sod/outlier/internal/geom"
)

// Table holds the neighbor sets of one scoring run. It is filled by
// Precompute and read-only afterwards.
type Table struct {
	sets       map[int]Set
	degenerate map[int]error
}

func (t *Table) Neighbors(id int) (Set, bool) {
	s, ok := t.sets[id]
	return s, ok
}

// Reason returns why a point has no neighbor set, or nil.
func (t *Table) Reason(id int) error {
	return t.degenerate[id]
}

func (t *Table) Len() int {
	return len(t.sets)
}

// Precompute queries the k nearest neighbors of every id in parallel. A query
// failing with geom.ErrDegenerate is recorded for that point only; any other
// failure, including a short answer, aborts the whole run.
func Precompute(ctx context.Context, p Provider, ids []int, k int, workers int) (*Table, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	expected := Expected(p, k)
	sets := make([]Set, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range ids {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			set, err := p.KNN(gctx, ids[i], k)
			if err != nil {
				if errors.Is(err, geom.ErrDegenerate) {
					errs[i] = err
					return nil
				}
				return fmt.Errorf("unable to query neighbors of %d: %w", ids[i], err)
			}
			if len(set) != expected {
				return fmt.Errorf("point %d got %d of %d neighbors: %w", ids[i], len(set), expected, ErrShortfall)
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := &Table{sets: make(map[int]Set, len(ids)), degenerate: map[int]error{}}
	for i, id := range ids {
		if errs[i] != nil {
			table.degenerate[id] = errs[i]
			continue
		}
		table.sets[id] = sets[i]
	}
	return table, nil
}
