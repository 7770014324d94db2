package report

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/imaging"
)

// classPalette gives every class a label background.
var classPalette = map[circuit.ComponentClass]color.NRGBA{
	circuit.Unknown:                imaging.MustParseHexColor("#808080"),
	circuit.Inductor:               imaging.MustParseHexColor("#ff0000"),
	circuit.Resistor:               imaging.MustParseHexColor("#0000ff"),
	circuit.Capacitor:              imaging.MustParseHexColor("#008000"),
	circuit.CurrentSource:          imaging.MustParseHexColor("#ffa500"),
	circuit.VoltageSource:          imaging.MustParseHexColor("#800080"),
	circuit.DependantVoltageSource: imaging.MustParseHexColor("#000080"),
	circuit.DependantCurrentSource: imaging.MustParseHexColor("#808000"),
}

var (
	labelText = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	boxColor  = color.NRGBA{R: 255, A: 255}
)

const (
	labelPad  = 2
	boxStroke = 2
)

// ClassColor returns the palette color of a class, white for classes
// outside the palette.
func ClassColor(c circuit.ComponentClass) color.NRGBA {
	if col, ok := classPalette[c]; ok {
		return col
	}
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}

// Annotate returns a copy of img with a class-colored label centered on
// every component. With boxes set, components that carry bounds or a size
// also get a red outline.
func Annotate(img image.Image, set circuit.ComponentSet, boxes bool) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	for _, c := range set.Components {
		cx := int(math.Round(c.Center.X))
		cy := int(math.Round(c.Center.Y))

		text := c.Class.Label()
		tw, th := imaging.TextSize(text)
		bg := image.Rect(
			cx-(tw+2*labelPad)/2,
			cy-(th+2*labelPad)/2,
			cx-(tw+2*labelPad)/2+tw+2*labelPad,
			cy-(th+2*labelPad)/2+th+2*labelPad,
		)
		draw.Draw(out, bg.Intersect(out.Bounds()), image.NewUniform(ClassColor(c.Class)), image.Point{}, draw.Src)
		imaging.DrawLabel(out, cx-tw/2, cy-th/2, text, labelText, nil)

		if !boxes {
			continue
		}
		if box, ok := c.Box(); ok {
			outline(out, image.Rect(
				int(math.Round(box.X)),
				int(math.Round(box.Y)),
				int(math.Round(box.X+box.W)),
				int(math.Round(box.Y+box.H)),
			), boxStroke, boxColor)
		}
	}
	return out
}

// outline strokes the inside edge of r, clipped to dst.
func outline(dst *image.RGBA, r image.Rectangle, stroke int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+stroke),
		image.Rect(r.Min.X, r.Max.Y-stroke, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+stroke, r.Max.Y),
		image.Rect(r.Max.X-stroke, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}
