package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// Fixed parameters of the thickening transform.
const (
	ThickenLevel     = 128 // binarization threshold on luminance
	ThickenEdgeLow   = 50
	ThickenEdgeHigh  = 150
	ThickenDilateLen = 4 // side of the square structuring element
)

// Thicken turns thin pen strokes into bold outlines: grayscale, binarize at
// ThickenLevel, extract edges, then dilate with a ThickenDilateLen square.
// The result is an opaque RGBA image with white strokes on black.
type Thicken struct{}

// Apply runs the thickening pipeline on a copy of img.
func (Thicken) Apply(img image.Image) (image.Image, error) {
	if LongestSide(img) == 0 {
		return nil, ErrEmptyImage
	}

	gray := effect.Grayscale(img)
	binary := segment.Threshold(gray, ThickenLevel)
	edges := Edges(binary, ThickenEdgeLow, ThickenEdgeHigh)

	// bild's window side is int(2r + 1.5), so r = (n-1)/2 yields an n x n square.
	radius := float64(ThickenDilateLen-1) / 2
	return effect.Dilate(edges, radius), nil
}
