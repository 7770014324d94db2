package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelFace is the fixed-width face used for tick and component labels.
var labelFace = basicfont.Face7x13

// TextSize returns the pixel width and line height of s in the label face.
func TextSize(s string) (width, height int) {
	return font.MeasureString(labelFace, s).Ceil(), labelFace.Height
}

// DrawLabel draws text with its top-left corner at (x, y). When bg is not nil
// a one pixel padded box is filled behind the text first. Pixels outside dst
// are clipped.
func DrawLabel(dst draw.Image, x, y int, text string, fg, bg color.Color) {
	if text == "" {
		return
	}
	w, h := TextSize(text)
	if bg != nil {
		box := image.Rect(x-1, y-1, x+w+1, y+h+1).Intersect(dst.Bounds())
		draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Over)
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: labelFace,
		Dot:  fixed.P(x, y+labelFace.Ascent),
	}
	d.DrawString(text)
}

// ParseHexColor parses "#RRGGBB", "#RGB" or "#RRGGBBAA". The leading '#' is
// optional.
func ParseHexColor(hex string) (color.NRGBA, error) {
	s := strings.TrimSpace(hex)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in color %q: %w", hex, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	if len(s) != 7 && len(s) != 4 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color length: %q", hex)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// MustParseHexColor is ParseHexColor for package-level palettes. It panics
// on malformed input.
func MustParseHexColor(hex string) color.NRGBA {
	c, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}
