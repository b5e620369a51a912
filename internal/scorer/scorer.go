// Package scorer computes density based outlier scores for every point of a
// dataset.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/density"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/logging"
	"github.com/go-sod/outlier/internal/metrics"
	"github.com/go-sod/outlier/internal/neighbor"
)

type Scorer interface {
	Score(ctx context.Context, ds *dataset.Dataset) (*Result, error)
}

// ProvideFn builds a scorer; options given to it override configured ones.
type ProvideFn func(opts ...Option) (Scorer, error)

var _ Scorer = (*scorer)(nil)

type Option func(*scorer)

func WithK(k int) Option {
	return func(s *scorer) {
		s.opts.k = k
	}
}

func WithMethod(m density.MethodType) Option {
	return func(s *scorer) {
		s.opts.method = m
	}
}

func WithDistance(d geom.DistanceFuncType) Option {
	return func(s *scorer) {
		s.opts.distanceFuncType = d
	}
}

func WithWeights(w []float64) Option {
	return func(s *scorer) {
		s.opts.params.Weights = w
	}
}

func WithMinkowskiP(p float64) Option {
	return func(s *scorer) {
		s.opts.params.MinkowskiP = p
	}
}

func WithAlg(alg AlgType) Option {
	return func(s *scorer) {
		s.opts.algType = alg
	}
}

// WithClampK lowers k to N-1 instead of rejecting runs with k >= N.
func WithClampK(clamp bool) Option {
	return func(s *scorer) {
		s.opts.clampK = clamp
	}
}

func WithWorkers(n int) Option {
	return func(s *scorer) {
		s.opts.workers = n
	}
}

// WithProvider replaces the provider selected by the alg type.
func WithProvider(fn neighbor.ProvideFn) Option {
	return func(s *scorer) {
		s.provide = fn
	}
}

// WrapFn decorates the neighbor provider of a run; distKey identifies the
// distance function and its parameters.
type WrapFn func(distKey string, inner neighbor.ProvideFn) neighbor.ProvideFn

// WithProviderWrapper decorates every provider the scorer builds, e.g. with a
// persistent neighbor cache.
func WithProviderWrapper(fn WrapFn) Option {
	return func(s *scorer) {
		s.wrap = fn
	}
}

type Options struct {
	k                int
	method           density.MethodType
	distanceFuncType geom.DistanceFuncType
	params           geom.DistanceParams
	algType          AlgType
	clampK           bool
	workers          int
}

var defaultOptions = Options{
	k:                DefaultKNum,
	method:           density.MethodCOF,
	distanceFuncType: geom.DistanceFuncTypeEuclidean,
	params:           geom.DistanceParams{MinkowskiP: 2},
	algType:          AlgTypeAuto,
}

func New(opts ...Option) (*scorer, error) {
	s := &scorer{opts: defaultOptions}
	for _, f := range opts {
		f(s)
	}
	if s.opts.k <= 0 {
		return nil, configErr("k", fmt.Errorf("%w: %d", ErrInvalidK, s.opts.k))
	}
	if s.opts.workers <= 0 {
		s.opts.workers = runtime.NumCPU()
	}
	estimator, err := density.EstimatorFor(s.opts.method)
	if err != nil {
		return nil, configErr("method", err)
	}
	s.estimator = estimator
	distFunc, err := geom.DistanceFuncFor(s.opts.distanceFuncType, s.opts.params)
	if err != nil {
		return nil, configErr("distance", err)
	}
	s.distFunc = geom.Checked(distFunc)
	if s.provide == nil {
		// dimension is not known yet, only reject impossible combinations here
		if _, err := NNFor(s.opts.algType, s.opts.distanceFuncType, 0); err != nil {
			return nil, configErr("alg", err)
		}
	}
	return s, nil
}

type scorer struct {
	opts      Options
	estimator density.Estimator
	distFunc  geom.DistanceFn
	provide   neighbor.ProvideFn
	wrap      WrapFn
}

// estimate is the density estimate of one point, or why it has none.
type estimate struct {
	value float64
	err   error
}

func (s *scorer) Score(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	k, provide, err := s.validate(ds)
	if err != nil {
		return nil, err
	}
	result, err := s.score(ctx, ds, k, provide)
	if err != nil {
		metrics.RecordFailure(ctx, s.estimator.Name())
		return nil, err
	}
	undefinedNum := result.Undefined()
	metrics.RecordRun(ctx, s.estimator.Name(), time.Since(start), len(result.IDs), undefinedNum)
	logger.Infow("scoring run finished",
		"run_id", result.RunID,
		"method", result.Method,
		"distance", result.Distance,
		"k", k,
		"points", len(result.IDs),
		"undefined", undefinedNum,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *scorer) validate(ds *dataset.Dataset) (int, neighbor.ProvideFn, error) {
	if ds == nil {
		return 0, nil, configErr("dataset", ErrNilDataset)
	}
	if ds.Len() == 0 {
		return 0, nil, configErr("dataset", dataset.ErrEmpty)
	}
	if s.opts.distanceFuncType.Weighted() && len(s.opts.params.Weights) != ds.Dim() {
		return 0, nil, configErr("weights", fmt.Errorf("%w: %d weights, dimension %d",
			ErrBadWeights, len(s.opts.params.Weights), ds.Dim()))
	}
	k := s.opts.k
	if k >= ds.Len() {
		if !s.opts.clampK {
			return 0, nil, configErr("k", fmt.Errorf("%w: k %d, points %d", ErrKTooLarge, k, ds.Len()))
		}
		k = ds.Len() - 1
	}
	provide := s.provide
	if provide == nil {
		fn, err := NNFor(s.opts.algType, s.opts.distanceFuncType, ds.Dim())
		if err != nil {
			return 0, nil, configErr("alg", err)
		}
		provide = fn
	}
	if s.wrap != nil {
		provide = s.wrap(DistanceKey(s.opts.distanceFuncType, s.opts.params), provide)
	}
	return k, provide, nil
}

func (s *scorer) score(ctx context.Context, ds *dataset.Dataset, k int, provide neighbor.ProvideFn) (*Result, error) {
	logger := logging.FromContext(ctx)
	runID := uuid.New()

	p, err := provide(ctx, ds, s.distFunc)
	if err != nil {
		return nil, fmt.Errorf("unable to build neighbor provider: %w", err)
	}
	ids := ds.IDs()
	logger.Debugf("run %s: querying %d neighbors for %d points", runID, k, len(ids))
	table, err := neighbor.Precompute(ctx, p, ids, k, s.opts.workers)
	if err != nil {
		return nil, fmt.Errorf("unable to query neighbors: %w", err)
	}

	logger.Debugf("run %s: estimating %s", runID, s.estimator.Name())
	hood := &neighborhood{table: table, ds: ds, distFunc: s.distFunc}
	estimates := make([]estimate, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers)
	for i := range ids {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if reason := table.Reason(ids[i]); reason != nil {
				estimates[i] = estimate{err: reason}
				return nil
			}
			v, err := s.estimator.Estimate(ids[i], hood)
			if err != nil {
				if errors.Is(err, density.ErrNoNeighbors) || errors.Is(err, geom.ErrDegenerate) {
					estimates[i] = estimate{err: err}
					return nil
				}
				return fmt.Errorf("unable to estimate %s of %d: %w", s.estimator.Name(), ids[i], err)
			}
			estimates[i] = estimate{value: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pos := make(map[int]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	scores := make([]Score, len(ids))
	kind := s.estimator.Kind()
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers)
	for i := range ids {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			set, _ := table.Neighbors(ids[i])
			hoodEstimates := make([]estimate, len(set))
			for j, n := range set {
				hoodEstimates[j] = estimates[pos[n.ID]]
			}
			scores[i] = combine(ids[i], kind, estimates[i], hoodEstimates)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:    runID,
		K:        k,
		Method:   s.opts.method,
		Distance: s.opts.distanceFuncType,
		IDs:      ids,
		Scores:   make(map[int]Score, len(ids)),
	}
	for i, id := range ids {
		result.Scores[id] = scores[i]
	}
	return result, nil
}

// combine turns a point's estimate and those of its neighbors into a score.
// Undefined neighbor estimates are left out of the average.
func combine(id int, kind density.Kind, own estimate, hood []estimate) Score {
	if own.err != nil {
		return undefined(id, own.err)
	}
	if math.IsNaN(own.value) {
		return undefined(id, ErrIndeterminate)
	}
	var (
		sum float64
		n   int
	)
	for _, e := range hood {
		if e.err != nil || math.IsNaN(e.value) {
			continue
		}
		sum += e.value
		n++
	}
	if n == 0 {
		return undefined(id, density.ErrNoNeighbors)
	}

	switch kind {
	case density.KindDensity:
		if math.IsInf(own.value, 1) {
			return defined(id, 1)
		}
		if math.IsInf(sum, 1) || own.value == 0 {
			return unbounded(id)
		}
		return defined(id, sum/(float64(n)*own.value))
	default:
		if math.IsInf(own.value, 1) {
			if math.IsInf(sum, 1) {
				return undefined(id, ErrIndeterminate)
			}
			return unbounded(id)
		}
		if sum == 0 {
			if own.value == 0 {
				return defined(id, 1)
			}
			return unbounded(id)
		}
		return defined(id, own.value*float64(n)/sum)
	}
}

type neighborhood struct {
	table    *neighbor.Table
	ds       *dataset.Dataset
	distFunc geom.DistanceFn
}

func (h *neighborhood) Neighbors(id int) (neighbor.Set, bool) {
	return h.table.Neighbors(id)
}

func (h *neighborhood) Distance(a, b int) (float64, error) {
	vec, ok := h.ds.Vector(a)
	if !ok {
		return 0, fmt.Errorf("%w: %d", neighbor.ErrUnknownPoint, a)
	}
	vec1, ok := h.ds.Vector(b)
	if !ok {
		return 0, fmt.Errorf("%w: %d", neighbor.ErrUnknownPoint, b)
	}
	return h.distFunc(vec, vec1)
}
