package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestCompareImages_Identical(t *testing.T) {
	a := createEdgeTestImage(20, 20)

	result, err := CompareImages(a, a)
	if err != nil {
		t.Fatalf("CompareImages failed: %v", err)
	}
	if result.SimilarityScore != 1 || result.PixelsDifferent != 0 || result.AverageColorDiff != 0 {
		t.Errorf("identical images: got %+v", result)
	}
	if !result.SameSize || result.TotalPixels != 400 {
		t.Errorf("size fields: got %+v", result)
	}
}

func TestCompareImages_HalfDifferent(t *testing.T) {
	a := createInMemoryImage(10, 10, color.White)
	b := createInMemoryImage(10, 10, color.White)
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			b.Set(x, y, color.Black)
		}
	}

	result, err := CompareImages(a, b)
	if err != nil {
		t.Fatalf("CompareImages failed: %v", err)
	}
	if result.PixelsDifferent != 50 {
		t.Errorf("PixelsDifferent: got %d, want 50", result.PixelsDifferent)
	}
	if result.SimilarityScore != 0.5 {
		t.Errorf("SimilarityScore: got %v, want 0.5", result.SimilarityScore)
	}
	if result.AverageColorDiff != 127.5 {
		t.Errorf("AverageColorDiff: got %v, want 127.5", result.AverageColorDiff)
	}
}

func TestCompareImages_DifferentSizes(t *testing.T) {
	a := createInMemoryImage(10, 10, color.White)
	b := createInMemoryImage(5, 20, color.White)

	result, err := CompareImages(a, b)
	if err != nil {
		t.Fatalf("CompareImages failed: %v", err)
	}
	if result.SameSize || result.TotalPixels != 50 {
		t.Errorf("got %+v, want 50 compared pixels and SameSize false", result)
	}
}

func TestCompareImages_Empty(t *testing.T) {
	_, err := CompareImages(image.NewRGBA(image.Rect(0, 0, 0, 0)), createInMemoryImage(2, 2, color.White))
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("got %v, want ErrEmptyImage", err)
	}
}

func TestRasterFidelity_GridChangesPixels(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	out, layout, err := GridOverlay{Step: 10, IncludeGrid: true}.Render(img)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	result, err := RasterFidelity(img, out, layout)
	if err != nil {
		t.Fatalf("RasterFidelity failed: %v", err)
	}
	if result.SimilarityScore >= 1 {
		t.Error("grid lines should change part of the image area")
	}
	if result.SimilarityScore < 0.5 {
		t.Errorf("SimilarityScore %v: grid lines should cover a small fraction", result.SimilarityScore)
	}
}

func TestRasterFidelity_OutsideCanvas(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)
	canvas := createInMemoryImage(20, 20, color.White)

	if _, err := RasterFidelity(img, canvas, GridLayout{}); err == nil {
		t.Error("RasterFidelity should fail when the image does not fit the canvas")
	}
}
