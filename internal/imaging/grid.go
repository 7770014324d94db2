package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
)

// DefaultGridColor is the grid line color ("gray").
const DefaultGridColor = "#808080"

const (
	tickLength = 4
	tickPad    = 3
)

// GridOverlay draws a labeled coordinate grid over an image so a recognizer
// can read positions off the axes.
//
// The image is always re-rastered into a fresh white canvas with room for
// the axis labels, also when IncludeGrid is false; in that case only the
// frame and the tick labels are drawn. Tick labels are in source image
// pixels, starting at 0 and spaced Step apart.
type GridOverlay struct {
	Step        int
	IncludeGrid bool
	// LineColor is a hex color for grid lines. Empty or malformed values fall
	// back to DefaultGridColor.
	LineColor string
}

// GridLayout describes where the source image landed in the overlay canvas.
type GridLayout struct {
	Offset image.Point `json:"offset"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Step   int         `json:"step"`
	XTicks []int       `json:"x_ticks"`
	YTicks []int       `json:"y_ticks"`
}

// Apply renders the overlay and discards the layout.
func (g GridOverlay) Apply(img image.Image) (image.Image, error) {
	out, _, err := g.Render(img)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Render draws the overlay into a new canvas. Every call allocates its own
// canvas, so concurrent calls share no drawing state.
func (g GridOverlay) Render(img image.Image) (*image.RGBA, GridLayout, error) {
	if g.Step <= 0 {
		return nil, GridLayout{}, ErrInvalidStep
	}
	if LongestSide(img) == 0 {
		return nil, GridLayout{}, ErrEmptyImage
	}

	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	xTicks := ticks(w, g.Step)
	yTicks := ticks(h, g.Step)

	_, textH := TextSize("0")
	maxYLabel := 0
	for _, t := range yTicks {
		if lw, _ := TextSize(strconv.Itoa(t)); lw > maxYLabel {
			maxYLabel = lw
		}
	}
	lastXLabel, _ := TextSize(strconv.Itoa(xTicks[len(xTicks)-1]))

	left := maxYLabel + tickLength + 2*tickPad
	top := textH/2 + tickPad
	right := lastXLabel/2 + tickPad
	bottom := tickLength + textH + 2*tickPad

	canvas := image.NewRGBA(image.Rect(0, 0, left+w+right, top+h+bottom))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	origin := image.Pt(left, top)
	draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}, img, src.Min, draw.Over)

	if g.IncludeGrid {
		lineColor, err := ParseHexColor(g.LineColor)
		if err != nil {
			lineColor = MustParseHexColor(DefaultGridColor)
		}
		for _, t := range xTicks {
			vline(canvas, origin.X+t, origin.Y, origin.Y+h, lineColor)
		}
		for _, t := range yTicks {
			hline(canvas, origin.X, origin.X+w, origin.Y+t, lineColor)
		}
	}

	frame := color.Black
	hline(canvas, origin.X-1, origin.X+w+1, origin.Y-1, frame)
	hline(canvas, origin.X-1, origin.X+w+1, origin.Y+h, frame)
	vline(canvas, origin.X-1, origin.Y-1, origin.Y+h+1, frame)
	vline(canvas, origin.X+w, origin.Y-1, origin.Y+h+1, frame)

	for _, t := range xTicks {
		x := origin.X + t
		vline(canvas, x, origin.Y+h, origin.Y+h+tickLength, frame)
		label := strconv.Itoa(t)
		lw, _ := TextSize(label)
		DrawLabel(canvas, x-lw/2, origin.Y+h+tickLength+tickPad, label, frame, nil)
	}
	for _, t := range yTicks {
		y := origin.Y + t
		hline(canvas, origin.X-tickLength, origin.X, y, frame)
		label := strconv.Itoa(t)
		lw, _ := TextSize(label)
		DrawLabel(canvas, origin.X-tickLength-tickPad-lw, y-textH/2, label, frame, nil)
	}

	layout := GridLayout{
		Offset: origin,
		Width:  canvas.Bounds().Dx(),
		Height: canvas.Bounds().Dy(),
		Step:   g.Step,
		XTicks: xTicks,
		YTicks: yTicks,
	}
	return canvas, layout, nil
}

// ticks returns 0, step, 2*step, ... below limit.
func ticks(limit, step int) []int {
	out := make([]int, 0, limit/step+1)
	for t := 0; t < limit; t += step {
		out = append(out, t)
	}
	return out
}

func hline(img *image.RGBA, x1, x2, y int, c color.Color) {
	for x := x1; x < x2; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.RGBA, x, y1, y2 int, c color.Color) {
	for y := y1; y < y2; y++ {
		img.Set(x, y, c)
	}
}
