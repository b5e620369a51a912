package scorer

import (
	"fmt"
	"strings"

	"github.com/go-sod/outlier/internal/density"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/neighbor"
	"github.com/go-sod/outlier/internal/neighbor/brute"
	"github.com/go-sod/outlier/internal/neighbor/kd"
)

const DefaultKNum = 10

// autoKDMaxDim is the highest dimension AUTO still picks the kd-tree for.
const autoKDMaxDim = 10

type AlgType string

const (
	AlgTypeAuto   AlgType = "AUTO"
	AlgTypeKDTree AlgType = "KD_TREE"
	AlgTypeBrute  AlgType = "BRUTE"
)

type Config struct {
	KNum             int                   `envconfig:"OUTLIER_K_NUM" default:"10" toml:"k"`
	Method           density.MethodType    `envconfig:"OUTLIER_METHOD" default:"COF" toml:"method"`
	DistanceFuncType geom.DistanceFuncType `envconfig:"OUTLIER_DISTANCE_FUNC" default:"EUCLIDEAN" toml:"distance"`
	Weights          []float64             `envconfig:"OUTLIER_DISTANCE_WEIGHTS" toml:"weights"`
	MinkowskiP       float64               `envconfig:"OUTLIER_MINKOWSKI_P" default:"2" toml:"minkowski_p"`
	AlgType          AlgType               `envconfig:"OUTLIER_ALG_TYPE" default:"AUTO" toml:"alg"`
	ClampK           bool                  `envconfig:"OUTLIER_CLAMP_K" toml:"clamp_k"`
	Workers          int                   `envconfig:"OUTLIER_WORKERS" toml:"workers"`
}

// Options converts the config to scorer options.
func (c Config) Options() []Option {
	return []Option{
		WithK(c.KNum),
		WithMethod(c.Method),
		WithDistance(c.DistanceFuncType),
		WithWeights(c.Weights),
		WithMinkowskiP(c.MinkowskiP),
		WithAlg(c.AlgType),
		WithClampK(c.ClampK),
		WithWorkers(c.Workers),
	}
}

func ParseAlgType(s string) (AlgType, error) {
	a := AlgType(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case AlgTypeAuto, AlgTypeKDTree, AlgTypeBrute:
		return a, nil
	default:
		return "", fmt.Errorf("unknown alg type: %s", s)
	}
}

// NNFor picks the neighbor provider for an algorithm and distance type.
func NNFor(a AlgType, d geom.DistanceFuncType, dim int) (neighbor.ProvideFn, error) {
	switch a {
	case AlgTypeBrute:
		return brute.Provide(), nil
	case AlgTypeKDTree:
		if !d.AxisBounded() {
			return nil, fmt.Errorf("kd tree does not support distance %s", d)
		}
		return kd.Provide(), nil
	case AlgTypeAuto:
		if d.AxisBounded() && dim <= autoKDMaxDim {
			return kd.Provide(), nil
		}
		return brute.Provide(), nil
	default:
		return nil, fmt.Errorf("unable to create alg with alg type %s", a)
	}
}

// DistanceKey identifies a distance function with its parameters, for use as
// a cache key.
func DistanceKey(d geom.DistanceFuncType, params geom.DistanceParams) string {
	switch {
	case d == geom.DistanceFuncTypeMinkowski:
		return fmt.Sprintf("%s(%g)", d, params.MinkowskiP)
	case d.Weighted():
		return fmt.Sprintf("%s%v", d, params.Weights)
	default:
		return string(d)
	}
}
