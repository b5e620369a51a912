package brute

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/neighbor"
)

func TestBrute_KNN(t *testing.T) {
	ds, err := dataset.New(
		dataset.Point{ID: 10, Vec: geom.Point{0, 0}},
		dataset.Point{ID: 4, Vec: geom.Point{1, 0}},
		dataset.Point{ID: 7, Vec: geom.Point{0, 1}},
		dataset.Point{ID: 2, Vec: geom.Point{-1, 0}},
		dataset.Point{ID: 5, Vec: geom.Point{5, 5}},
	)
	if err != nil {
		t.Fatalf("unable to create dataset: %v", err)
	}
	b, err := NewBruteAlg(ds, geom.EuclideanDistance)
	if err != nil {
		t.Fatalf("unable to create brute alg: %v", err)
	}

	tests := []struct {
		name     string
		id       int
		k        int
		expected []int
	}{
		{name: "ties_by_id", id: 10, k: 3, expected: []int{2, 4, 7}},
		{name: "k_larger_than_dataset", id: 10, k: 10, expected: []int{2, 4, 7, 5}},
		{name: "zero_k", id: 10, k: 0, expected: []int{}},
		{name: "far_point", id: 5, k: 1, expected: []int{4}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			set, err := b.KNN(context.Background(), test.id, test.k)
			if err != nil {
				t.Fatalf("knn error: %v", err)
			}
			ids := set.IDs()
			if len(ids) != len(test.expected) {
				t.Fatalf("knn length, got: %v, expected: %v", ids, test.expected)
			}
			for i := range ids {
				if ids[i] != test.expected[i] {
					t.Errorf("knn order, got: %v, expected: %v", ids, test.expected)
				}
				if ids[i] == test.id {
					t.Errorf("query point must be excluded, got: %v", ids)
				}
			}
			for i := 1; i < len(set); i++ {
				if neighbor.Less(set[i], set[i-1]) {
					t.Errorf("knn result is not sorted: %v", set)
				}
			}
		})
	}

	if _, err := b.KNN(context.Background(), 99, 1); !errors.Is(err, neighbor.ErrUnknownPoint) {
		t.Errorf("unknown point, got: %v, expected: %v", err, neighbor.ErrUnknownPoint)
	}
}

func TestBrute_Degenerate(t *testing.T) {
	ds, err := dataset.FromVectors([][]float64{{1, 2, 3}, {2, 2, 2}, {3, 2, 1}, {1, 3, 2}})
	if err != nil {
		t.Fatalf("unable to create dataset: %v", err)
	}
	b, err := NewBruteAlg(ds, geom.SquaredPearsonDistance)
	if err != nil {
		t.Fatalf("unable to create brute alg: %v", err)
	}
	if b.Len() != 3 {
		t.Errorf("degenerate points must not be indexed, got len: %d", b.Len())
	}
	if _, err := b.KNN(context.Background(), 1, 2); !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("degenerate query, got: %v, expected: %v", err, geom.ErrDegenerate)
	}
	set, err := b.KNN(context.Background(), 0, 5)
	if err != nil {
		t.Fatalf("knn error: %v", err)
	}
	for _, n := range set {
		if n.ID == 1 {
			t.Errorf("degenerate point returned as neighbor: %v", set)
		}
	}
	if len(set) != 2 {
		t.Errorf("knn length, got: %d, expected: 2", len(set))
	}
}

func TestBrute_CanceledContext(t *testing.T) {
	ds, _ := dataset.FromVectors([][]float64{{1}, {2}, {3}})
	b, _ := NewBruteAlg(ds, geom.EuclideanDistance)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.KNN(ctx, 0, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled query, got: %v, expected: %v", err, context.Canceled)
	}
}

func TestBrute_UndefinedPairDistance(t *testing.T) {
	ds, _ := dataset.FromVectors([][]float64{{1}, {2}, {3}})
	distFn := func(vec, vec1 []float64) (float64, error) {
		if vec[0]+vec1[0] == 4 && vec[0] != vec1[0] {
			return math.NaN(), nil
		}
		return math.Abs(vec[0] - vec1[0]), nil
	}
	b, err := NewBruteAlg(ds, distFn)
	if err != nil {
		t.Fatalf("unable to create brute alg: %v", err)
	}
	if _, err := b.KNN(context.Background(), 0, 2); !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("NaN pair distance, got: %v, expected: %v", err, geom.ErrDegenerate)
	}
	set, err := b.KNN(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("knn error: %v", err)
	}
	if len(set) != 2 {
		t.Errorf("knn length, got: %d, expected: 2", len(set))
	}
}

func TestBrute_OverflowingDistance(t *testing.T) {
	ds, _ := dataset.FromVectors([][]float64{{0}, {1}, {-1e308}, {1e308}})
	b, err := NewBruteAlg(ds, geom.EuclideanDistance)
	if err != nil {
		t.Fatalf("unable to create brute alg: %v", err)
	}
	set, err := b.KNN(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("knn error: %v", err)
	}
	if ids := set.IDs(); len(ids) != 3 || ids[2] != 3 {
		t.Errorf("overflowing neighbor must order last, got: %v", set)
	}
	if !math.IsInf(set.KDistance(), 1) {
		t.Errorf("k-distance, got: %v, expected: +Inf", set.KDistance())
	}
}
