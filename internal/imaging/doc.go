// Package imaging normalizes circuit photos before detection.
//
// The central abstraction is Transform: a stage that takes an image and
// returns a new one without touching its input. Stages compose through
// Chain, which is itself a Transform, so pipelines nest:
//
//	pre := imaging.Chain{imaging.Scale{Target: 500}, imaging.Thicken{}}
//	out, err := pre.Apply(raw)
//
// # Stages
//
//   - Scale: resize so the longest side becomes the next multiple of Target
//     above it (linear interpolation)
//   - Fit: resize so the longest side equals Size
//   - Thicken: grayscale, binarize, Canny edges, square dilation
//   - GridOverlay: re-raster onto a canvas with a labeled coordinate grid,
//     used only right before a vision recognizer
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. GridOverlay tick labels
// use the coordinates of the source image, not of the overlay canvas.
//
// # Thread Safety
//
// Transforms hold no state and can run concurrently. ImageCache is safe for
// concurrent use; the images it returns are shared and must not be modified.
//
// # Error Handling
//
// Transforms return ErrEmptyImage for images with no pixels and
// GridOverlay returns ErrInvalidStep for a step below 1. Codec and loader
// errors wrap the underlying decode or I/O error.
package imaging
