package inference

import (
	"cmp"
	"slices"

	"github.com/sambeau/tracer/pkg/tracer/object"
)

// Outcome is one distinct value with its posterior probability.
type Outcome struct {
	Value       object.Object
	Probability float64
	Count       int
}

// Posterior groups the samples by value (structural equality) and sums
// their normalized weights. Outcomes are ordered by probability, most
// likely first; ties keep the order of first appearance.
func (r *Result) Posterior() []Outcome {
	ws := normalized(r.Samples)
	if ws == nil {
		return nil
	}
	var out []Outcome
	for i, s := range r.Samples {
		if ws[i] == 0 {
			continue
		}
		j := slices.IndexFunc(out, func(o Outcome) bool { return object.Equal(o.Value, s.Value) })
		if j < 0 {
			out = append(out, Outcome{Value: s.Value})
			j = len(out) - 1
		}
		out[j].Probability += ws[i]
		out[j].Count++
	}
	slices.SortStableFunc(out, func(a, b Outcome) int {
		return cmp.Compare(b.Probability, a.Probability)
	})
	return out
}

// Mean is the weighted mean of numeric sample values. It reports false if
// any weighted value is not a number.
func (r *Result) Mean() (float64, bool) {
	ws := normalized(r.Samples)
	if ws == nil {
		return 0, false
	}
	var mean float64
	for i, s := range r.Samples {
		if ws[i] == 0 {
			continue
		}
		x, ok := object.NumberValue(s.Value)
		if !ok {
			return 0, false
		}
		mean += ws[i] * x
	}
	return mean, true
}
