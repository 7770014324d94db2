package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00FF00", color.NRGBA{0, 255, 0, 255}, false},
		{"#0000FF80", color.NRGBA{0, 0, 255, 128}, false},
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"#808080", color.NRGBA{128, 128, 128, 255}, false},
		{"", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
		{"#112233ZZ", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHexColor(%q) should fail, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHexColor(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHexColor(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDrawLabel(t *testing.T) {
	img := createInMemoryImage(100, 30, color.White)

	DrawLabel(img, 5, 5, "R1 100", color.Black, color.RGBA{0, 0, 255, 255})

	w, h := TextSize("R1 100")
	if w != 6*7 || h != 13 {
		t.Errorf("TextSize: got %dx%d, want 42x13", w, h)
	}

	// padding pixel of the background box
	if r, g, b, _ := img.At(4, 4).RGBA(); r != 0 || g != 0 || b>>8 != 255 {
		t.Errorf("background at (4,4): got (%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}

	dark := 0
	for y := 5; y < 5+h; y++ {
		for x := 5; x < 5+w; x++ {
			if r, g, b, _ := img.At(x, y).RGBA(); r == 0 && g == 0 && b == 0 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("no glyph pixels drawn")
	}

	// outside the label box stays white
	if r, _, _, _ := img.At(80, 25).RGBA(); r>>8 != 255 {
		t.Error("pixels outside the label changed")
	}
}

func TestDrawLabel_ClipsAtBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	DrawLabel(img, 5, 5, "999999", color.White, color.Black)
	DrawLabel(img, -20, -20, "1", color.White, color.Black)
	DrawLabel(img, 0, 0, "", color.White, color.Black)
}
