package dataprocessing

import (
	"errors"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"vizpipe/pkg/contracts/domain"
)

// NoDataClass is the class of a target without a value
const NoDataClass = -1

// ErrEmptyScale is returned when a scale has no classes or no values
var ErrEmptyScale = errors.New("quantile scale needs at least one class and one finite value")

// QuantileScale maps values onto equal-population classes
type QuantileScale struct {
	classes    int
	thresholds []float64
}

// NewQuantileScale computes classes-1 thresholds at the quantiles i/classes
// of the finite values.
func NewQuantileScale(values []float64, classes int) (*QuantileScale, error) {
	if classes < 1 {
		return nil, ErrEmptyScale
	}

	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return nil, ErrEmptyScale
	}

	sample := stats.Sample{Xs: xs}
	sample.Sort()

	thresholds := make([]float64, classes-1)
	for i := range thresholds {
		thresholds[i] = sample.Quantile(float64(i+1) / float64(classes))
	}
	return &QuantileScale{classes: classes, thresholds: thresholds}, nil
}

// Classes returns the number of classes
func (q *QuantileScale) Classes() int { return q.classes }

// Thresholds returns a copy of the class breaks in ascending order
func (q *QuantileScale) Thresholds() []float64 {
	out := make([]float64, len(q.thresholds))
	copy(out, q.thresholds)
	return out
}

// Classify returns the class of v: the number of thresholds not above it.
// A nil or NaN value is NoDataClass.
func (q *QuantileScale) Classify(v *float64) int {
	if v == nil || math.IsNaN(*v) {
		return NoDataClass
	}
	return sort.Search(len(q.thresholds), func(i int) bool {
		return q.thresholds[i] > *v
	})
}

// ClassifyTargets pairs every target with its class
func (q *QuantileScale) ClassifyTargets(targets []domain.JoinTarget) []domain.ClassifiedTarget {
	out := make([]domain.ClassifiedTarget, len(targets))
	for i, t := range targets {
		out[i] = domain.ClassifiedTarget{JoinTarget: t, Class: q.Classify(t.Value)}
	}
	return out
}

// JoinedValues returns the values of the targets that have one
func JoinedValues(targets []domain.JoinTarget) []float64 {
	values := make([]float64, 0, len(targets))
	for _, t := range targets {
		if t.Value != nil {
			values = append(values, *t.Value)
		}
	}
	return values
}
