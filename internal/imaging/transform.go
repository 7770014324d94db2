package imaging

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrEmptyImage is returned by transforms given an image with no pixels.
	ErrEmptyImage = errors.New("image has no pixels")

	// ErrInvalidStep is returned by the grid overlay for a step below 1.
	ErrInvalidStep = errors.New("grid step must be positive")
)

// Transform is one preprocessing stage. Apply must not modify img and
// returns a new image.
type Transform interface {
	Apply(img image.Image) (image.Image, error)
}

// TransformFunc adapts a plain function to Transform.
type TransformFunc func(img image.Image) (image.Image, error)

// Apply calls f(img).
func (f TransformFunc) Apply(img image.Image) (image.Image, error) {
	return f(img)
}

// Chain runs its stages in order, feeding each stage the previous output.
// A Chain is itself a Transform, so chains nest.
type Chain []Transform

// Apply runs every stage. An empty chain returns a copy of img.
func (c Chain) Apply(img image.Image) (image.Image, error) {
	if len(c) == 0 {
		return imaging.Clone(img), nil
	}

	out := img
	for i, step := range c {
		next, err := step.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("preprocess step %d: %w", i+1, err)
		}
		out = next
	}
	return out, nil
}

// Preprocess applies steps to img in order.
func Preprocess(img image.Image, steps ...Transform) (image.Image, error) {
	return Chain(steps).Apply(img)
}

// BuildChain turns step names into a Chain. Known names are "scale" (next
// multiple of target), "fit" (longest side equals target) and "thicken".
func BuildChain(names []string, target int) (Chain, error) {
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "scale":
			chain = append(chain, Scale{Target: target})
		case "fit":
			chain = append(chain, Fit{Size: target})
		case "thicken":
			chain = append(chain, Thicken{})
		default:
			return nil, fmt.Errorf("unknown preprocessing step: %q", name)
		}
	}
	return chain, nil
}

// LongestSide returns max(width, height) of img.
func LongestSide(img image.Image) int {
	b := img.Bounds()
	if b.Dx() > b.Dy() {
		return b.Dx()
	}
	return b.Dy()
}
