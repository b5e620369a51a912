package dataset

import (
	"fmt"
	"math"

	"github.com/valyala/fastrand"

	"github.com/go-sod/outlier/internal/geom"
)

// NoiseLabel marks generated outliers, matching the label used by the
// reference benchmark datasets.
const NoiseLabel = "Noise"

// SynthConfig describes a generated dataset: uniform clusters of ClusterSize
// points each, plus Noise points drawn from the whole bounding box.
type SynthConfig struct {
	Dim         int
	Clusters    int
	ClusterSize int
	Spread      float64
	Noise       int
	Extent      float64
	Seed        uint32
}

// Synthetic generates a deterministic dataset for the given configuration.
func Synthetic(cfg SynthConfig) (*Dataset, error) {
	if cfg.Dim <= 0 || cfg.Clusters < 0 || cfg.ClusterSize < 0 || cfg.Noise < 0 {
		return nil, fmt.Errorf("invalid synthetic dataset config: %+v", cfg)
	}
	if cfg.Extent <= 0 {
		cfg.Extent = 100
	}
	if cfg.Spread <= 0 {
		cfg.Spread = 1
	}
	var rng fastrand.RNG
	// a zero state makes fastrand fall back to a random seed
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	rng.Seed(cfg.Seed)
	uniform := func(lo, hi float64) float64 {
		return lo + (hi-lo)*float64(rng.Uint32())/float64(math.MaxUint32)
	}

	points := make([]Point, 0, cfg.Clusters*cfg.ClusterSize+cfg.Noise)
	for c := 0; c < cfg.Clusters; c++ {
		center := make([]float64, cfg.Dim)
		for d := range center {
			center[d] = uniform(0, cfg.Extent)
		}
		for i := 0; i < cfg.ClusterSize; i++ {
			vec := make([]float64, cfg.Dim)
			for d := range vec {
				vec[d] = center[d] + uniform(-cfg.Spread, cfg.Spread)
			}
			points = append(points, Point{ID: len(points), Vec: geom.NewPoint(vec), Label: fmt.Sprintf("Cluster%d", c)})
		}
	}
	for i := 0; i < cfg.Noise; i++ {
		vec := make([]float64, cfg.Dim)
		for d := range vec {
			vec[d] = uniform(-cfg.Extent, 2*cfg.Extent)
		}
		points = append(points, Point{ID: len(points), Vec: geom.NewPoint(vec), Label: NoiseLabel})
	}
	return New(points...)
}
