// Package geometry provides the pixel-space primitives shared by scoring and
// rendering: points, axis-aligned bounding boxes and their overlap.
//
// Coordinates follow the image convention: origin at the top-left corner,
// X increasing rightward and Y increasing downward.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Point is a pixel position. Coordinates are float so that rescaled
// positions keep their fractional part.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	return floats.Distance([]float64{p.X, p.Y}, []float64{other.X, other.Y}, 2)
}

// Scale returns the point with both coordinates multiplied by factor.
func (p Point) Scale(factor float64) Point {
	return Point{X: p.X * factor, Y: p.Y * factor}
}

// BoundingBox is an axis-aligned box given by its top-left corner and size.
// W and H are expected to be positive; callers validate with Valid.
type BoundingBox struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// BoxAround returns a size x size box centered on c.
func BoxAround(c Point, size float64) BoundingBox {
	return BoundingBox{X: c.X - size/2, Y: c.Y - size/2, W: size, H: size}
}

// Valid reports whether the box has a positive area.
func (b BoundingBox) Valid() bool {
	return b.W > 0 && b.H > 0
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Area returns W*H.
func (b BoundingBox) Area() float64 {
	return b.W * b.H
}

// Scale multiplies position and size by factor.
func (b BoundingBox) Scale(factor float64) BoundingBox {
	return BoundingBox{X: b.X * factor, Y: b.Y * factor, W: b.W * factor, H: b.H * factor}
}

// IntersectionArea returns the area shared by two boxes, 0 when disjoint.
// Boxes that only touch along an edge do not intersect.
func IntersectionArea(a, b BoundingBox) float64 {
	ix1 := math.Max(a.X, b.X)
	iy1 := math.Max(a.Y, b.Y)
	ix2 := math.Min(a.X+a.W, b.X+b.W)
	iy2 := math.Min(a.Y+a.H, b.Y+b.H)

	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	return (ix2 - ix1) * (iy2 - iy1)
}

// IoU returns intersection over union of two boxes.
//
// Both boxes must have a positive area; for degenerate boxes the union may be
// zero and the result is NaN.
func IoU(a, b BoundingBox) float64 {
	inter := IntersectionArea(a, b)
	return inter / (a.Area() + b.Area() - inter)
}
