package report

import (
	"image"
	"image/color"
	"math"

	dimaging "github.com/disintegration/imaging"

	"github.com/ironsheep/photocircuit/internal/circuit"
)

const (
	layoutMargin = 100
	glyphSize    = 41
	glyphRadius  = 9
)

// RenderLayout draws the component set on its own: a white canvas reaching
// 100px past the furthest component, with a class-colored marker at every
// center and an arrow pointing along its positive input direction (degrees,
// counter-clockwise from the +x axis).
func RenderLayout(set circuit.ComponentSet) *image.NRGBA {
	var maxX, maxY float64
	for _, c := range set.Components {
		maxX = math.Max(maxX, c.Center.X)
		maxY = math.Max(maxY, c.Center.Y)
	}
	canvas := dimaging.New(int(maxX)+layoutMargin, int(maxY)+layoutMargin, color.White)

	for _, c := range set.Components {
		g := dimaging.Rotate(glyph(ClassColor(c.Class)), float64(c.Orientation), color.Transparent)
		pos := image.Pt(
			int(math.Round(c.Center.X))-g.Bounds().Dx()/2,
			int(math.Round(c.Center.Y))-g.Bounds().Dy()/2,
		)
		canvas = dimaging.Overlay(canvas, g, pos, 1.0)
	}
	return canvas
}

// glyph is a filled disc with an arrow pointing right, on a transparent
// background.
func glyph(fill color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, glyphSize, glyphSize))
	mid := glyphSize / 2
	arrow := color.NRGBA{A: 255}

	for y := 0; y < glyphSize; y++ {
		for x := 0; x < glyphSize; x++ {
			dx, dy := x-mid, y-mid
			if dx*dx+dy*dy <= glyphRadius*glyphRadius {
				img.SetNRGBA(x, y, fill)
			}
		}
	}
	for x := mid; x < glyphSize-8; x++ {
		for y := mid - 1; y <= mid+1; y++ {
			img.SetNRGBA(x, y, arrow)
		}
	}
	for x := glyphSize - 8; x < glyphSize; x++ {
		half := (glyphSize - 1 - x) / 2
		for y := mid - half; y <= mid+half; y++ {
			img.SetNRGBA(x, y, arrow)
		}
	}
	return img
}

// MergeVertically stacks top over bottom on a black canvas, margin pixels
// apart. The canvas is as wide as the wider image.
func MergeVertically(top, bottom image.Image, margin int) *image.NRGBA {
	if margin < 0 {
		margin = 0
	}
	tb, bb := top.Bounds(), bottom.Bounds()
	width := tb.Dx()
	if bb.Dx() > width {
		width = bb.Dx()
	}

	out := dimaging.New(width, tb.Dy()+margin+bb.Dy(), color.Black)
	out = dimaging.Paste(out, top, image.Pt(0, 0))
	return dimaging.Paste(out, bottom, image.Pt(0, tb.Dy()+margin))
}
