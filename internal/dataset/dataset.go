// Package dataset holds the read-only vectors a scoring run operates on.
package dataset

import (
	"errors"
	"fmt"

	"github.com/go-sod/outlier/internal/geom"
)

var (
	ErrEmpty       = errors.New("dataset is empty")
	ErrDimMismatch = errors.New("vectors of a dataset must share one dimension")
	ErrDuplicateID = errors.New("duplicate point id")
	ErrNonFinite   = errors.New("coordinates must be finite")
)

// Point is one vector of a dataset with its stable identifier and an optional
// class label.
type Point struct {
	ID    int
	Vec   geom.Point
	Label string
}

// Dataset owns its points for the lifetime of a scoring run. It is never
// mutated after construction, so concurrent readers need no locking.
type Dataset struct {
	points []Point
	index  map[int]int
	dim    int
}

// New copies the given points into a dataset. All vectors must have the same
// non-zero dimension, finite coordinates and unique IDs.
func New(points ...Point) (*Dataset, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	ds := &Dataset{
		points: make([]Point, len(points)),
		index:  make(map[int]int, len(points)),
		dim:    points[0].Vec.Dimensions(),
	}
	if ds.dim == 0 {
		return nil, fmt.Errorf("point %d: %w: zero dimension", points[0].ID, ErrDimMismatch)
	}
	for i, p := range points {
		if p.Vec.Dimensions() != ds.dim {
			return nil, fmt.Errorf("point %d has dimension %d, expected %d: %w", p.ID, p.Vec.Dimensions(), ds.dim, ErrDimMismatch)
		}
		if !p.Vec.Finite() {
			return nil, fmt.Errorf("point %d: %w", p.ID, ErrNonFinite)
		}
		if _, ok := ds.index[p.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
		}
		ds.index[p.ID] = i
		ds.points[i] = Point{ID: p.ID, Vec: p.Vec.Copy(), Label: p.Label}
	}
	return ds, nil
}

// FromVectors builds a dataset assigning IDs 0..n-1 in order.
func FromVectors(vectors [][]float64) (*Dataset, error) {
	points := make([]Point, len(vectors))
	for i := range vectors {
		points[i] = Point{ID: i, Vec: geom.NewPoint(vectors[i])}
	}
	return New(points...)
}

func (d *Dataset) Len() int {
	return len(d.points)
}

func (d *Dataset) Dim() int {
	return d.dim
}

// At returns the i-th point in load order.
func (d *Dataset) At(i int) Point {
	return d.points[i]
}

// Vector returns the vector of the point with the given ID.
func (d *Dataset) Vector(id int) (geom.Point, bool) {
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return d.points[i].Vec, true
}

// Point returns the point with the given ID.
func (d *Dataset) Point(id int) (Point, bool) {
	i, ok := d.index[id]
	if !ok {
		return Point{}, false
	}
	return d.points[i], true
}

// IDs returns the point identifiers in load order.
func (d *Dataset) IDs() []int {
	ids := make([]int, len(d.points))
	for i := range d.points {
		ids[i] = d.points[i].ID
	}
	return ids
}

// WithLabel returns the IDs of points carrying the label.
func (d *Dataset) WithLabel(label string) map[int]bool {
	set := map[int]bool{}
	for _, p := range d.points {
		if p.Label == label {
			set[p.ID] = true
		}
	}
	return set
}
