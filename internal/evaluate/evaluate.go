// Package evaluate ranks scoring results and measures them against ground
// truth labels.
package evaluate

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/scorer"
)

var (
	ErrNoPositives = errors.New("no positive points")
	ErrNoNegatives = errors.New("no negative points")
)

// rankValue orders unbounded scores above every defined one and undefined
// scores below.
func rankValue(s scorer.Score) float64 {
	switch s.Status {
	case scorer.StatusUnbounded:
		return math.MaxFloat64
	case scorer.StatusUndefined:
		return -1
	default:
		return s.Value
	}
}

// Rank returns the scores by descending outlierness, ties by ascending ID.
func Rank(result *scorer.Result) []scorer.Score {
	ranked := result.Ordered()
	sort.Slice(ranked, func(i, j int) bool {
		vi, vj := rankValue(ranked[i]), rankValue(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// TopN returns the n highest ranked scores.
func TopN(result *scorer.Result, n int) []scorer.Score {
	ranked := Rank(result)
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// AUC is the area under the ROC curve of the scores against the positive
// set. Tied scores share one ROC step.
func AUC(result *scorer.Result, positives map[int]bool) (float64, error) {
	y := make([]float64, len(result.IDs))
	classes := make([]bool, len(result.IDs))
	var pos int
	for i, id := range result.IDs {
		y[i] = rankValue(result.Scores[id])
		classes[i] = positives[id]
		if classes[i] {
			pos++
		}
	}
	if pos == 0 {
		return 0, ErrNoPositives
	}
	if pos == len(y) {
		return 0, ErrNoNegatives
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// PrecisionAt is the share of positives among the n highest ranked points.
func PrecisionAt(result *scorer.Result, positives map[int]bool, n int) float64 {
	top := TopN(result, n)
	if len(top) == 0 {
		return 0
	}
	var hits int
	for _, s := range top {
		if positives[s.ID] {
			hits++
		}
	}
	return float64(hits) / float64(len(top))
}

// LabelSet marks the points of ds carrying label as positives.
func LabelSet(ds *dataset.Dataset, label string) map[int]bool {
	return ds.WithLabel(label)
}
