package scoring

import (
	"math"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/geometry"
)

// Score computes the mean nearest-same-class-neighbor distance from the
// predicted components to the ground truth.
//
// The result is Incomparable when the sets differ in size, or when a
// prediction has a class with no ground-truth instance. Otherwise each
// prediction contributes its distance to the closest ground-truth component
// of its class, and the sum is divided by the ground-truth count. Ground-truth
// components may be matched more than once. Two empty sets score 0. NaN or
// infinite coordinates make the result Incomparable.
func Score(groundTruth, predicted circuit.ComponentSet) Result {
	if groundTruth.Len() != predicted.Len() {
		return countMismatch()
	}
	if groundTruth.Len() == 0 {
		return finite(0)
	}

	buckets := make(map[circuit.ComponentClass][]geometry.Point)
	for _, c := range groundTruth.Components {
		buckets[c.Class] = append(buckets[c.Class], c.Center)
	}

	var total float64
	for _, p := range predicted.Components {
		centers := buckets[p.Class]
		if len(centers) == 0 {
			return spuriousClass(p.Class)
		}
		nearest := math.Inf(1)
		for _, c := range centers {
			if d := p.Center.Distance(c); d < nearest {
				nearest = d
			}
		}
		if !isFinite(nearest) {
			return nonFinite()
		}
		total += nearest
	}

	mean := total / float64(groundTruth.Len())
	if !isFinite(mean) {
		return nonFinite()
	}
	return finite(mean)
}

// Similarity is the earlier percentage score. For each class present in the
// ground truth, the last ground-truth and last predicted position of that
// class are compared and contribute 1/(1 + d/diag), diag being the diagonal
// of a width x height image. The sum is divided by the number of ground-truth
// components and scaled to percent, so duplicated classes cap the score
// below 100.
func Similarity(groundTruth, predicted circuit.ComponentSet, width, height int) float64 {
	if groundTruth.Len() == 0 {
		return 0
	}
	diag := math.Hypot(float64(width), float64(height))
	if diag == 0 {
		return 0
	}

	truth := lastByClass(groundTruth)
	guess := lastByClass(predicted)

	var total float64
	for class, t := range truth {
		g, ok := guess[class]
		if !ok {
			continue
		}
		d := t.Distance(g)
		if !isFinite(d) {
			continue
		}
		total += 1 / (1 + d/diag)
	}
	return total / float64(groundTruth.Len()) * 100
}

func lastByClass(s circuit.ComponentSet) map[circuit.ComponentClass]geometry.Point {
	out := make(map[circuit.ComponentClass]geometry.Point, s.Len())
	for _, c := range s.Components {
		out[c.Class] = c.Center
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
