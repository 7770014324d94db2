package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates many Score results. Statistics cover comparable
// results only; incomparable ones are counted per reason.
type Summary struct {
	Total          int            `json:"total"`
	Comparable     int            `json:"comparable"`
	Incomparable   int            `json:"incomparable"`
	ByReason       map[Reason]int `json:"by_reason,omitempty"`
	Mean           float64        `json:"mean"`
	StdDev         float64        `json:"std_dev"`
	Median         float64        `json:"median"`
	Max            float64        `json:"max"`
	ComparableRate float64        `json:"comparable_rate"`
}

// Summarize computes a Summary. With no comparable results the statistics
// are zero.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), ByReason: make(map[Reason]int)}

	values := make([]float64, 0, len(results))
	for _, r := range results {
		if r.IsComparable() {
			values = append(values, r.Value)
			continue
		}
		s.Incomparable++
		s.ByReason[r.Reason]++
	}
	s.Comparable = len(values)
	if s.Total > 0 {
		s.ComparableRate = float64(s.Comparable) / float64(s.Total)
	}
	if len(values) == 0 {
		return s
	}

	sort.Float64s(values)
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 || math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	s.Max = values[len(values)-1]
	return s
}
