package scorer

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/go-sod/outlier/internal/density"
	"github.com/go-sod/outlier/internal/geom"
)

type Status int

const (
	StatusDefined Status = iota
	// StatusUndefined marks a point whose estimate could not be computed:
	// a degenerate distance, no neighbors or no defined neighbor estimates.
	StatusUndefined
	// StatusUnbounded marks a point infinitely sparser than its neighborhood.
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusDefined:
		return "DEFINED"
	case StatusUndefined:
		return "UNDEFINED"
	case StatusUnbounded:
		return "UNBOUNDED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Score is the outlier score of one point. Value is 0 for undefined scores
// and +Inf for unbounded ones.
type Score struct {
	ID     int
	Value  float64
	Status Status
	Reason string
}

func (s Score) Defined() bool {
	return s.Status == StatusDefined
}

func (s Score) MarshalJSON() ([]byte, error) {
	var value *float64
	if s.Status == StatusDefined {
		v := s.Value
		value = &v
	}
	return json.Marshal(struct {
		ID     int      `json:"id"`
		Value  *float64 `json:"value"`
		Status Status   `json:"status"`
		Reason string   `json:"reason,omitempty"`
	}{ID: s.ID, Value: value, Status: s.Status, Reason: s.Reason})
}

// defined never yields a non-finite defined value: +Inf is unbounded and NaN
// is undefined.
func defined(id int, v float64) Score {
	switch {
	case math.IsNaN(v):
		return undefined(id, ErrIndeterminate)
	case math.IsInf(v, 1):
		return unbounded(id)
	}
	return Score{ID: id, Value: v, Status: StatusDefined}
}

func undefined(id int, reason error) Score {
	s := Score{ID: id, Status: StatusUndefined}
	if reason != nil {
		s.Reason = reason.Error()
	}
	return s
}

func unbounded(id int) Score {
	return Score{ID: id, Value: math.Inf(1), Status: StatusUnbounded}
}

// Result holds one score per dataset point.
type Result struct {
	RunID    uuid.UUID             `json:"run_id"`
	K        int                   `json:"k"`
	Method   density.MethodType    `json:"method"`
	Distance geom.DistanceFuncType `json:"distance"`
	// IDs lists the point identifiers in dataset order.
	IDs    []int         `json:"-"`
	Scores map[int]Score `json:"-"`
}

func (r *Result) Score(id int) (Score, bool) {
	s, ok := r.Scores[id]
	return s, ok
}

// Ordered returns the scores in dataset order.
func (r *Result) Ordered() []Score {
	scores := make([]Score, len(r.IDs))
	for i, id := range r.IDs {
		scores[i] = r.Scores[id]
	}
	return scores
}

func (r *Result) Undefined() int {
	var n int
	for _, s := range r.Scores {
		if s.Status == StatusUndefined {
			n++
		}
	}
	return n
}

func (r *Result) MarshalJSON() ([]byte, error) {
	type result Result
	return json.Marshal(struct {
		*result
		Scores []Score `json:"scores"`
	}{result: (*result)(r), Scores: r.Ordered()})
}
