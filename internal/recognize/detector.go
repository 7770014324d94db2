// Package recognize connects the pipeline to component recognizers.
//
// A recognizer is anything that looks at a circuit photo and reports
// components with class and center. Vision backends read positions off a
// labeled coordinate grid, so PrepareImage draws one before the image is
// handed over; CommandDetector and HTTPDetector send that PNG to an external
// process or service and parse the YAML they answer with. Predictions come
// back in the pixel coordinates of the image passed to Detect.
package recognize

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/imaging"
)

// DefaultGridBase is the grid step for images up to ten steps long.
const DefaultGridBase = 50

// Detector finds components in an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
	return f(ctx, img, gridStep, includeGrid)
}

// GridStepFor picks a grid step for an image with the given longest side:
// base while the side is at most ten steps long, twice base above that.
// A base <= 0 selects DefaultGridBase.
func GridStepFor(longest, base int) int {
	if base <= 0 {
		base = DefaultGridBase
	}
	if longest <= 10*base {
		return base
	}
	return 2 * base
}

// PrepareImage draws the coordinate grid and encodes the result as PNG, the
// form every external recognizer receives.
func PrepareImage(img image.Image, gridStep int, includeGrid bool) ([]byte, imaging.GridLayout, error) {
	canvas, layout, err := imaging.GridOverlay{Step: gridStep, IncludeGrid: includeGrid}.Render(img)
	if err != nil {
		return nil, imaging.GridLayout{}, fmt.Errorf("failed to draw grid: %w", err)
	}
	data, err := imaging.EncodePNG(canvas)
	if err != nil {
		return nil, imaging.GridLayout{}, err
	}
	return data, layout, nil
}

// Repeat runs d n times on the same input and concatenates the components
// of every run. Vision recognizers are not deterministic and each pass tends
// to find a different subset. With n <= 1, d is returned as is.
func Repeat(d Detector, n int) Detector {
	if n <= 1 {
		return d
	}
	return DetectorFunc(func(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
		runs := make([]circuit.ComponentSet, 0, n)
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return circuit.ComponentSet{}, err
			}
			set, err := d.Detect(ctx, img, gridStep, includeGrid)
			if err != nil {
				return circuit.ComponentSet{}, fmt.Errorf("detection pass %d: %w", i+1, err)
			}
			runs = append(runs, set)
		}
		return circuit.Concat(runs...), nil
	})
}
