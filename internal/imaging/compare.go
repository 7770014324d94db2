package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// diffThreshold is the mean per-channel difference above which a pixel
// counts as changed.
const diffThreshold = 10

// CompareResult summarizes the pixel difference between two images.
type CompareResult struct {
	SimilarityScore  float64 `json:"similarity_score"`
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	SameSize         bool    `json:"same_size"`
	AverageColorDiff float64 `json:"average_color_diff"`
}

// CompareImages compares a and b pixel by pixel over their common top-left
// area. SimilarityScore is the fraction of pixels whose mean channel
// difference stays within diffThreshold.
func CompareImages(a, b image.Image) (*CompareResult, error) {
	ab, bb := a.Bounds(), b.Bounds()
	w := min(ab.Dx(), bb.Dx())
	h := min(ab.Dy(), bb.Dy())
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	total := w * h
	different := 0
	var totalDiff float64

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			r1, g1, b1, _ := a.At(ab.Min.X+dx, ab.Min.Y+dy).RGBA()
			r2, g2, b2, _ := b.At(bb.Min.X+dx, bb.Min.Y+dy).RGBA()

			diff := float64(absDiff(r1>>8, r2>>8)+absDiff(g1>>8, g2>>8)+absDiff(b1>>8, b2>>8)) / 3.0
			totalDiff += diff
			if diff > diffThreshold {
				different++
			}
		}
	}

	return &CompareResult{
		SimilarityScore:  math.Round((1-float64(different)/float64(total))*1000) / 1000,
		PixelsDifferent:  different,
		TotalPixels:      total,
		SameSize:         ab.Dx() == bb.Dx() && ab.Dy() == bb.Dy(),
		AverageColorDiff: math.Round(totalDiff/float64(total)*100) / 100,
	}, nil
}

// RasterFidelity crops the image area back out of a grid overlay canvas and
// compares it with the source. It measures how much the overlay changed the
// pixels the recognizer sees.
func RasterFidelity(src, canvas image.Image, layout GridLayout) (*CompareResult, error) {
	b := src.Bounds()
	area := image.Rectangle{Min: layout.Offset, Max: layout.Offset.Add(image.Pt(b.Dx(), b.Dy()))}
	if !area.In(canvas.Bounds()) {
		return nil, fmt.Errorf("layout area %v outside canvas %v", area, canvas.Bounds())
	}
	return CompareImages(src, imaging.Crop(canvas, area))
}

func absDiff(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
