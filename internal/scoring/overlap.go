package scoring

import (
	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/geometry"
)

// Overlap returns the mean IoU over every pair (x, y) with x from a and y
// from b. It is not class-aware and does no matching; it estimates how much
// two layouts overlap overall. Either side empty gives 0.
//
// Boxes must have positive area; degenerate boxes are the caller's problem.
func Overlap(a, b []geometry.BoundingBox) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var sum float64
	for _, x := range a {
		for _, y := range b {
			sum += geometry.IoU(x, y)
		}
	}
	return sum / float64(len(a)*len(b))
}

// OverlapSets is Overlap over the bounding boxes of two component sets.
// Components without a box or size are left out.
func OverlapSets(a, b circuit.ComponentSet) float64 {
	return Overlap(a.Boxes(), b.Boxes())
}
