package geom

import "math"

// Point is a fixed-length numeric vector.
type Point []float64

func NewPoint(vec []float64) Point {
	return vec
}

func (v Point) Dimensions() int {
	return len(v)
}

func (v Point) Dim(idx int) float64 {
	return v[idx]
}

func (v Point) Points() []float64 {
	return v
}

func (v Point) Copy() Point {
	var v1 = make(Point, len(v))
	copy(v1, v)
	return v1
}

// Finite reports whether every coordinate is neither NaN nor infinite.
func (v Point) Finite() bool {
	for _, value := range v {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return false
		}
	}
	return true
}
