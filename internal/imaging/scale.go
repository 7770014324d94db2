package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultTarget is the preset scale target in pixels.
const DefaultTarget = 500

// Scale resizes an image so its longest side lands on the next multiple of
// Target above the current longest side. Images of different native
// resolutions end up with comparable grid-cell sizes this way.
type Scale struct {
	Target int
}

// ScaleFactorFor returns target * (1 + floor(longest/target)) / longest.
// For longest 1250 and target 500 that is 1500/1250 = 1.2.
func ScaleFactorFor(longest, target int) float64 {
	next := target * (1 + longest/target)
	return float64(next) / float64(longest)
}

// Apply resizes with linear interpolation.
func (s Scale) Apply(img image.Image) (image.Image, error) {
	if s.Target <= 0 {
		return nil, fmt.Errorf("scale target must be positive, got %d", s.Target)
	}
	longest := LongestSide(img)
	if longest == 0 {
		return nil, ErrEmptyImage
	}
	return resizeBy(img, ScaleFactorFor(longest, s.Target)), nil
}

// Fit resizes an image so its longest side equals Size exactly.
type Fit struct {
	Size int
}

// Apply resizes with linear interpolation.
func (f Fit) Apply(img image.Image) (image.Image, error) {
	if f.Size <= 0 {
		return nil, fmt.Errorf("fit size must be positive, got %d", f.Size)
	}
	longest := LongestSide(img)
	if longest == 0 {
		return nil, ErrEmptyImage
	}
	return resizeBy(img, float64(f.Size)/float64(longest)), nil
}

func resizeBy(img image.Image, factor float64) *image.NRGBA {
	b := img.Bounds()
	w := int(math.Max(1, math.Round(float64(b.Dx())*factor)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*factor)))
	return imaging.Resize(img, w, h, imaging.Linear)
}
