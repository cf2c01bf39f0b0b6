package marks

import (
	"github.com/montanaflynn/stats"
)

// Summary holds how many marks fell into each quartile range.
type Summary struct {
	Q1 int `json:"q1"`
	Q2 int `json:"q2"`
	Q3 int `json:"q3"`
	Q4 int `json:"q4"`
}

// Total is the number of classified marks.
func (s Summary) Total() int {
	return s.Q1 + s.Q2 + s.Q3 + s.Q4
}

// Counts returns the four counts in quartile order.
func (s Summary) Counts() [4]int {
	return [4]int{s.Q1, s.Q2, s.Q3, s.Q4}
}

// Boundaries are the thresholds interpolated over the observed [Min, Max] span.
type Boundaries struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
	B1    float64 `json:"b1"`
	B2    float64 `json:"b2"`
	B3    float64 `json:"b3"`
}

// ComputeBoundaries derives the three quartile thresholds from the smallest and
// largest mark. It reports false for an empty set.
func ComputeBoundaries(ms []float64) (Boundaries, bool) {
	if len(ms) == 0 {
		return Boundaries{}, false
	}
	lo, err := stats.Min(ms)
	if err != nil {
		return Boundaries{}, false
	}
	hi, err := stats.Max(ms)
	if err != nil {
		return Boundaries{}, false
	}
	span := hi - lo
	return Boundaries{
		Min:   lo,
		Max:   hi,
		Range: span,
		B1:    lo + span*0.25,
		B2:    lo + span*0.5,
		B3:    lo + span*0.75,
	}, true
}

// Quartile returns the 1-based bucket for m. Upper bounds are inclusive, so
// with a zero range every mark lands in the first bucket.
func (b Boundaries) Quartile(m float64) int {
	switch {
	case m <= b.B1:
		return 1
	case m <= b.B2:
		return 2
	case m <= b.B3:
		return 3
	default:
		return 4
	}
}

// Classify buckets every mark into one of four equal-width ranges of the
// min–max span. An empty input yields an all-zero summary.
func Classify(ms []float64) Summary {
	var s Summary
	b, ok := ComputeBoundaries(ms)
	if !ok {
		return s
	}
	for _, m := range ms {
		switch b.Quartile(m) {
		case 1:
			s.Q1++
		case 2:
			s.Q2++
		case 3:
			s.Q3++
		default:
			s.Q4++
		}
	}
	return s
}
