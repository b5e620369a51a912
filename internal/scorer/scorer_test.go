package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/density"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/neighbor"
	"github.com/go-sod/outlier/internal/neighbor/mocks"
)

var methods = []density.MethodType{density.MethodCOF, density.MethodLOF, density.MethodKNNMean}

func gridWithOutlier(t *testing.T) (*dataset.Dataset, int) {
	t.Helper()
	var vecs [][]float64
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			vecs = append(vecs, []float64{float64(x), float64(y)})
		}
	}
	vecs = append(vecs, []float64{100, 100})
	ds, err := dataset.FromVectors(vecs)
	require.NoError(t, err)
	return ds, len(vecs) - 1
}

func synthetic(t *testing.T, dim int) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Synthetic(dataset.SynthConfig{
		Dim: dim, Clusters: 3, ClusterSize: 30, Spread: 3, Noise: 8, Extent: 50, Seed: 42,
	})
	require.NoError(t, err)
	return ds
}

func TestScore_Totality(t *testing.T) {
	ds := synthetic(t, 3)
	for _, m := range methods {
		m := m
		t.Run(string(m), func(t *testing.T) {
			s, err := New(WithK(7), WithMethod(m))
			require.NoError(t, err)
			result, err := s.Score(context.Background(), ds)
			require.NoError(t, err)
			require.Len(t, result.Scores, ds.Len())
			for _, id := range ds.IDs() {
				score, ok := result.Score(id)
				require.True(t, ok, "missing score for %d", id)
				assert.Equal(t, id, score.ID)
				assert.False(t, math.IsNaN(score.Value))
				assert.GreaterOrEqual(t, score.Value, 0.0)
			}
			assert.Equal(t, ds.IDs(), result.IDs)
			assert.Equal(t, 7, result.K)
			assert.Equal(t, m, result.Method)
		})
	}
}

func TestScore_IsolatedPoint(t *testing.T) {
	ds, isolated := gridWithOutlier(t)
	for _, m := range methods {
		m := m
		t.Run(string(m), func(t *testing.T) {
			s, err := New(WithK(5), WithMethod(m))
			require.NoError(t, err)
			result, err := s.Score(context.Background(), ds)
			require.NoError(t, err)

			outlier := result.Scores[isolated]
			require.Equal(t, StatusDefined, outlier.Status)
			for id, score := range result.Scores {
				if id == isolated {
					continue
				}
				require.Equal(t, StatusDefined, score.Status)
				if score.Value >= outlier.Value {
					t.Errorf("point %d score %v not below isolated point score %v", id, score.Value, outlier.Value)
				}
			}
		})
	}
}

func TestScore_IdenticalPoints(t *testing.T) {
	vecs := make([][]float64, 6)
	for i := range vecs {
		vecs[i] = []float64{3, -1, 7}
	}
	ds, err := dataset.FromVectors(vecs)
	require.NoError(t, err)

	for _, m := range methods {
		m := m
		t.Run(string(m), func(t *testing.T) {
			s, err := New(WithK(3), WithMethod(m))
			require.NoError(t, err)
			result, err := s.Score(context.Background(), ds)
			require.NoError(t, err)
			for id, score := range result.Scores {
				if score.Status != StatusDefined || score.Value != 1 {
					t.Errorf("point %d, got: %+v, expected defined 1", id, score)
				}
			}
		})
	}
}

func TestScore_Idempotent(t *testing.T) {
	ds := synthetic(t, 4)
	for _, m := range methods {
		s, err := New(WithK(6), WithMethod(m), WithWorkers(4))
		require.NoError(t, err)
		first, err := s.Score(context.Background(), ds)
		require.NoError(t, err)
		second, err := s.Score(context.Background(), ds)
		require.NoError(t, err)
		if !assert.Equal(t, first.Scores, second.Scores, "method %s", m) {
			t.Log(spew.Sdump(first.Scores, second.Scores))
		}
		assert.NotEqual(t, first.RunID, second.RunID)
	}
}

func TestScore_ProvidersAgree(t *testing.T) {
	ds := synthetic(t, 3)
	for _, m := range methods {
		bs, err := New(WithK(8), WithMethod(m), WithAlg(AlgTypeBrute))
		require.NoError(t, err)
		ks, err := New(WithK(8), WithMethod(m), WithAlg(AlgTypeKDTree))
		require.NoError(t, err)

		expected, err := bs.Score(context.Background(), ds)
		require.NoError(t, err)
		got, err := ks.Score(context.Background(), ds)
		require.NoError(t, err)
		if !assert.Equal(t, expected.Scores, got.Scores, "method %s", m) {
			t.Log(spew.Sdump(expected.Scores, got.Scores))
		}
	}
}

func TestScore_WeightedOnesMatchUnweighted(t *testing.T) {
	ds := synthetic(t, 5)
	ones := []float64{1, 1, 1, 1, 1}
	pairs := [][2]geom.DistanceFuncType{
		{geom.DistanceFuncTypeSquaredPearson, geom.DistanceFuncTypeWeightedSquaredPearson},
		{geom.DistanceFuncTypePearson, geom.DistanceFuncTypeWeightedPearson},
		{geom.DistanceFuncTypeEuclidean, geom.DistanceFuncTypeWeightedEuclidean},
	}
	for _, pair := range pairs {
		pair := pair
		t.Run(string(pair[1]), func(t *testing.T) {
			s, err := New(WithK(5), WithDistance(pair[0]))
			require.NoError(t, err)
			ws, err := New(WithK(5), WithDistance(pair[1]), WithWeights(ones))
			require.NoError(t, err)

			expected, err := s.Score(context.Background(), ds)
			require.NoError(t, err)
			got, err := ws.Score(context.Background(), ds)
			require.NoError(t, err)
			for id, score := range expected.Scores {
				assert.Equal(t, score.Status, got.Scores[id].Status)
				assert.InDelta(t, score.Value, got.Scores[id].Value, 1e-9, "point %d", id)
			}
		})
	}
}

func TestScore_DegeneratePoint(t *testing.T) {
	ds, err := dataset.FromVectors([][]float64{
		{1, 2, 3, 4},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
		{1, 3, 2, 4},
		{3, 1, 4, 2},
		{2, 2, 2, 2},
		{4, 1, 3, 2},
	})
	require.NoError(t, err)

	for _, m := range methods {
		m := m
		t.Run(string(m), func(t *testing.T) {
			s, err := New(WithK(2), WithMethod(m), WithDistance(geom.DistanceFuncTypeSquaredPearson))
			require.NoError(t, err)
			result, err := s.Score(context.Background(), ds)
			require.NoError(t, err)
			require.Len(t, result.Scores, ds.Len())

			assert.Equal(t, StatusUndefined, result.Scores[5].Status)
			assert.Equal(t, 0.0, result.Scores[5].Value)
			assert.NotEmpty(t, result.Scores[5].Reason)
			assert.Equal(t, 1, result.Undefined())
			for id, score := range result.Scores {
				if id != 5 {
					assert.NotEqual(t, StatusUndefined, score.Status, "point %d", id)
				}
			}
		})
	}
}

func TestScore_SinglePointClamped(t *testing.T) {
	ds, err := dataset.FromVectors([][]float64{{1, 1}})
	require.NoError(t, err)
	s, err := New(WithK(3), WithClampK(true))
	require.NoError(t, err)
	result, err := s.Score(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 0, result.K)
	assert.Equal(t, StatusUndefined, result.Scores[0].Status)
}

func TestScore_ClampK(t *testing.T) {
	ds, _ := gridWithOutlier(t)
	s, err := New(WithK(100), WithClampK(true))
	require.NoError(t, err)
	result, err := s.Score(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, ds.Len()-1, result.K)
	assert.Len(t, result.Scores, ds.Len())
}

func TestConfigErrors(t *testing.T) {
	ds, _ := gridWithOutlier(t)
	tests := []struct {
		name  string
		opts  []Option
		ds    *dataset.Dataset
		field string
		err   error
	}{
		{name: "zero_k", opts: []Option{WithK(0)}, field: "k", err: ErrInvalidK},
		{name: "negative_k", opts: []Option{WithK(-3)}, field: "k", err: ErrInvalidK},
		{name: "k_too_large", opts: []Option{WithK(26)}, ds: ds, field: "k", err: ErrKTooLarge},
		{name: "unknown_method", opts: []Option{WithMethod("ABOD")}, field: "method"},
		{name: "kd_with_correlation", opts: []Option{
			WithAlg(AlgTypeKDTree), WithDistance(geom.DistanceFuncTypePearson),
		}, field: "alg"},
		{name: "unknown_alg", opts: []Option{WithAlg("BALL_TREE")}, field: "alg"},
		{name: "bad_minkowski", opts: []Option{
			WithDistance(geom.DistanceFuncTypeMinkowski), WithMinkowskiP(0.5),
		}, field: "distance"},
		{name: "weights_length", opts: []Option{
			WithDistance(geom.DistanceFuncTypeWeightedEuclidean), WithWeights([]float64{1, 2, 3}),
		}, ds: ds, field: "weights", err: ErrBadWeights},
		{name: "nil_dataset", opts: []Option{WithK(1)}, field: "dataset", err: ErrNilDataset},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			s, err := New(test.opts...)
			if err == nil {
				_, err = s.Score(context.Background(), test.ds)
			}
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected config error, got: %v", err)
			assert.Equal(t, test.field, cfgErr.Field)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
			}
		})
	}
}

func TestScore_ProviderShortfall(t *testing.T) {
	ds, err := dataset.FromVectors([][]float64{{0}, {1}, {2}, {3}})
	require.NoError(t, err)

	p := &mocks.Provider{}
	p.On("Len").Return(4)
	p.On("KNN", mock.Anything, mock.Anything, 2).Return(neighbor.Set{{ID: 1, Distance: 1}}, nil)

	s, err := New(WithK(2), WithProvider(func(context.Context, *dataset.Dataset, geom.DistanceFn) (neighbor.Provider, error) {
		return p, nil
	}))
	require.NoError(t, err)
	_, err = s.Score(context.Background(), ds)
	assert.ErrorIs(t, err, neighbor.ErrShortfall)
}

func TestScore_UndefinedNeighborDistances(t *testing.T) {
	ds, err := dataset.FromVectors([][]float64{{0}, {1}, {2}, {3}})
	require.NoError(t, err)
	nan := math.NaN()

	p := &mocks.Provider{}
	p.On("Len").Return(4)
	p.On("KNN", mock.Anything, 0, 2).Return(neighbor.Set{{ID: 1, Distance: nan}, {ID: 2, Distance: nan}}, nil)
	p.On("KNN", mock.Anything, 1, 2).Return(neighbor.Set{{ID: 0, Distance: 1}, {ID: 2, Distance: 1}}, nil)
	p.On("KNN", mock.Anything, 2, 2).Return(neighbor.Set{{ID: 1, Distance: 1}, {ID: 3, Distance: 1}}, nil)
	p.On("KNN", mock.Anything, 3, 2).Return(neighbor.Set{{ID: 2, Distance: 1}, {ID: 1, Distance: 2}}, nil)

	for _, m := range methods {
		s, err := New(WithK(2), WithMethod(m), WithProvider(func(context.Context, *dataset.Dataset, geom.DistanceFn) (neighbor.Provider, error) {
			return p, nil
		}))
		require.NoError(t, err)
		result, err := s.Score(context.Background(), ds)
		require.NoError(t, err, m)
		require.Len(t, result.Scores, 4)
		assert.Equal(t, StatusUndefined, result.Scores[0].Status, m)
		for id, score := range result.Scores {
			if score.Defined() {
				assert.False(t, math.IsNaN(score.Value) || math.IsInf(score.Value, 0), "%s point %d: %v", m, id, score.Value)
			}
		}
		_, err = json.Marshal(result)
		assert.NoError(t, err, m)
	}
}

func TestScore_OverflowingDistance(t *testing.T) {
	ds, err := dataset.FromVectors([][]float64{{0}, {1}, {2}, {3}, {1e200}})
	require.NoError(t, err)
	for _, m := range methods {
		s, err := New(WithK(2), WithMethod(m))
		require.NoError(t, err)
		result, err := s.Score(context.Background(), ds)
		require.NoError(t, err, m)
		assert.Equal(t, StatusUnbounded, result.Scores[4].Status, m)
		for id, score := range result.Scores {
			if score.Defined() {
				assert.False(t, math.IsNaN(score.Value) || math.IsInf(score.Value, 0), "%s point %d: %v", m, id, score.Value)
			}
		}
		_, err = json.Marshal(result)
		assert.NoError(t, err, m)
	}
}

func TestScore_ProviderFailure(t *testing.T) {
	ds, err := dataset.FromVectors([][]float64{{0}, {1}, {2}})
	require.NoError(t, err)
	failure := errors.New("index unavailable")

	s, err := New(WithK(1), WithProvider(func(context.Context, *dataset.Dataset, geom.DistanceFn) (neighbor.Provider, error) {
		return nil, failure
	}))
	require.NoError(t, err)
	_, err = s.Score(context.Background(), ds)
	assert.ErrorIs(t, err, failure)
}

func TestCombine(t *testing.T) {
	undef := estimate{err: density.ErrNoNeighbors}
	inf := math.Inf(1)
	tests := []struct {
		name     string
		kind     density.Kind
		own      estimate
		hood     []estimate
		expected Score
	}{
		{name: "distance_ratio", kind: density.KindDistance, own: estimate{value: 2},
			hood: []estimate{{value: 1}, {value: 3}}, expected: defined(0, 1)},
		{name: "distance_sparser", kind: density.KindDistance, own: estimate{value: 6},
			hood: []estimate{{value: 2}, {value: 2}}, expected: defined(0, 3)},
		{name: "distance_skips_undefined", kind: density.KindDistance, own: estimate{value: 2},
			hood: []estimate{{value: 2}, undef}, expected: defined(0, 1)},
		{name: "distance_all_zero", kind: density.KindDistance, own: estimate{value: 0},
			hood: []estimate{{value: 0}, {value: 0}}, expected: defined(0, 1)},
		{name: "distance_unbounded", kind: density.KindDistance, own: estimate{value: 1},
			hood: []estimate{{value: 0}}, expected: unbounded(0)},
		{name: "density_ratio", kind: density.KindDensity, own: estimate{value: 0.5},
			hood: []estimate{{value: 1}, {value: 0.5}}, expected: defined(0, 1.5)},
		{name: "density_own_infinite", kind: density.KindDensity, own: estimate{value: inf},
			hood: []estimate{{value: inf}}, expected: defined(0, 1)},
		{name: "density_hood_infinite", kind: density.KindDensity, own: estimate{value: 2},
			hood: []estimate{{value: inf}, {value: 1}}, expected: unbounded(0)},
		{name: "own_undefined", kind: density.KindDistance, own: undef,
			hood: []estimate{{value: 1}}, expected: undefined(0, density.ErrNoNeighbors)},
		{name: "hood_undefined", kind: density.KindDensity, own: estimate{value: 1},
			hood: []estimate{undef}, expected: undefined(0, density.ErrNoNeighbors)},
		{name: "no_neighbors", kind: density.KindDistance, own: estimate{value: 1},
			expected: undefined(0, density.ErrNoNeighbors)},
		{name: "own_nan", kind: density.KindDistance, own: estimate{value: math.NaN()},
			hood: []estimate{{value: 1}}, expected: Score{Status: StatusUndefined, Reason: ErrIndeterminate.Error()}},
		{name: "hood_nan_skipped", kind: density.KindDistance, own: estimate{value: 2},
			hood: []estimate{{value: math.NaN()}, {value: 1}}, expected: Score{Value: 2, Status: StatusDefined}},
		{name: "distance_own_infinite", kind: density.KindDistance, own: estimate{value: inf},
			hood: []estimate{{value: 1}, {value: 2}}, expected: Score{Value: inf, Status: StatusUnbounded}},
		{name: "distance_both_infinite", kind: density.KindDistance, own: estimate{value: inf},
			hood: []estimate{{value: inf}}, expected: Score{Status: StatusUndefined, Reason: ErrIndeterminate.Error()}},
		{name: "distance_hood_infinite", kind: density.KindDistance, own: estimate{value: 2},
			hood: []estimate{{value: inf}, {value: 1}}, expected: Score{Value: 0, Status: StatusDefined}},
		{name: "distance_overflow", kind: density.KindDistance, own: estimate{value: 1e308},
			hood: []estimate{{value: 1e-10}}, expected: Score{Value: inf, Status: StatusUnbounded}},
		{name: "density_overflow", kind: density.KindDensity, own: estimate{value: 1e-300},
			hood: []estimate{{value: 1e300}}, expected: Score{Value: inf, Status: StatusUnbounded}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			got := combine(0, test.kind, test.own, test.hood)
			if got != test.expected {
				t.Errorf("combine, got: %+v, expected: %+v", got, test.expected)
			}
		})
	}
}

func TestScore_MarshalJSON(t *testing.T) {
	result := &Result{
		K:      2,
		Method: density.MethodCOF,
		IDs:    []int{3, 1, 2},
		Scores: map[int]Score{
			1: defined(1, 1.25),
			2: unbounded(2),
			3: undefined(3, errors.New("degenerate")),
		},
	}
	b, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded struct {
		K      int    `json:"k"`
		Method string `json:"method"`
		Scores []struct {
			ID     int      `json:"id"`
			Value  *float64 `json:"value"`
			Status string   `json:"status"`
			Reason string   `json:"reason"`
		} `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, 2, decoded.K)
	assert.Equal(t, "COF", decoded.Method)
	require.Len(t, decoded.Scores, 3)
	assert.Equal(t, 3, decoded.Scores[0].ID)
	assert.Equal(t, "UNDEFINED", decoded.Scores[0].Status)
	assert.Equal(t, "degenerate", decoded.Scores[0].Reason)
	assert.Nil(t, decoded.Scores[0].Value)
	require.NotNil(t, decoded.Scores[1].Value)
	assert.Equal(t, 1.25, *decoded.Scores[1].Value)
	assert.Equal(t, "UNBOUNDED", decoded.Scores[2].Status)
	assert.Nil(t, decoded.Scores[2].Value)
}

func TestNNFor(t *testing.T) {
	tests := []struct {
		alg  AlgType
		dist geom.DistanceFuncType
		dim  int
		err  bool
	}{
		{alg: AlgTypeAuto, dist: geom.DistanceFuncTypeEuclidean, dim: 3},
		{alg: AlgTypeAuto, dist: geom.DistanceFuncTypeEuclidean, dim: 64},
		{alg: AlgTypeAuto, dist: geom.DistanceFuncTypeSquaredPearson, dim: 3},
		{alg: AlgTypeBrute, dist: geom.DistanceFuncTypeWeightedPearson, dim: 3},
		{alg: AlgTypeKDTree, dist: geom.DistanceFuncTypeChebyshev, dim: 3},
		{alg: AlgTypeKDTree, dist: geom.DistanceFuncTypeWeightedEuclidean, dim: 3, err: true},
		{alg: "BALL_TREE", dist: geom.DistanceFuncTypeEuclidean, dim: 3, err: true},
	}
	for _, test := range tests {
		fn, err := NNFor(test.alg, test.dist, test.dim)
		if test.err {
			assert.Error(t, err, "%s %s", test.alg, test.dist)
			continue
		}
		assert.NoError(t, err, "%s %s", test.alg, test.dist)
		assert.NotNil(t, fn)
	}
}

func TestDistanceKey(t *testing.T) {
	assert.Equal(t, "EUCLIDEAN", DistanceKey(geom.DistanceFuncTypeEuclidean, geom.DistanceParams{Weights: []float64{1}}))
	assert.Equal(t, "MINKOWSKI(3)", DistanceKey(geom.DistanceFuncTypeMinkowski, geom.DistanceParams{MinkowskiP: 3}))
	assert.Equal(t, "WEIGHTED_PEARSON[1 0.5]", DistanceKey(geom.DistanceFuncTypeWeightedPearson, geom.DistanceParams{Weights: []float64{1, 0.5}}))
}

func TestScore_ProviderWrapper(t *testing.T) {
	ds, _ := gridWithOutlier(t)
	var (
		keys  []string
		calls int
	)
	wrap := func(distKey string, inner neighbor.ProvideFn) neighbor.ProvideFn {
		keys = append(keys, distKey)
		return func(ctx context.Context, ds *dataset.Dataset, distFn geom.DistanceFn) (neighbor.Provider, error) {
			calls++
			return inner(ctx, ds, distFn)
		}
	}
	s, err := New(WithK(4), WithDistance(geom.DistanceFuncTypeManhattan), WithProviderWrapper(wrap))
	require.NoError(t, err)
	wrapped, err := s.Score(context.Background(), ds)
	require.NoError(t, err)

	plain, err := New(WithK(4), WithDistance(geom.DistanceFuncTypeManhattan))
	require.NoError(t, err)
	expected, err := plain.Score(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"MANHATTAN"}, keys)
	assert.Equal(t, 1, calls)
	assert.Equal(t, expected.Scores, wrapped.Scores)
}
