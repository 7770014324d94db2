package recognize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/geometry"
	"github.com/ironsheep/photocircuit/internal/imaging"
)

func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestGridStepFor(t *testing.T) {
	tests := []struct {
		longest int
		base    int
		want    int
	}{
		{300, 50, 50},
		{500, 50, 50},
		{501, 50, 100},
		{1000, 50, 100},
		{600, 60, 60},
		{601, 60, 120},
		{500, 0, 50},
		{700, -1, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d", tt.longest, tt.base), func(t *testing.T) {
			if got := GridStepFor(tt.longest, tt.base); got != tt.want {
				t.Errorf("GridStepFor(%d, %d): got %d, want %d", tt.longest, tt.base, got, tt.want)
			}
		})
	}
}

func TestPrepareImage(t *testing.T) {
	img := createInMemoryImage(120, 80, color.White)

	data, layout, err := PrepareImage(img, 50, true)
	if err != nil {
		t.Fatalf("PrepareImage failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("PrepareImage did not produce a PNG")
	}

	decoded, err := imaging.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != layout.Width || decoded.Bounds().Dy() != layout.Height {
		t.Errorf("canvas: got %v, want %dx%d", decoded.Bounds(), layout.Width, layout.Height)
	}
	if layout.Step != 50 {
		t.Errorf("Step: got %d, want 50", layout.Step)
	}
}

func TestPrepareImage_InvalidStep(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	if _, _, err := PrepareImage(img, 0, true); !errors.Is(err, imaging.ErrInvalidStep) {
		t.Errorf("PrepareImage: got %v, want ErrInvalidStep", err)
	}
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []circuit.Component
	}{
		{
			name: "yaml",
			input: `components:
  - component_name: resistor
    position: {x: 120, y: 48}
    positive_input_direction: 90
  - component_name: Voltage Source
    position:
      x: 10.5
      y: 300
`,
			want: []circuit.Component{
				{Class: circuit.Resistor, Center: geometry.Point{X: 120, Y: 48}, Orientation: 90},
				{Class: circuit.VoltageSource, Center: geometry.Point{X: 10.5, Y: 300}},
			},
		},
		{
			name:  "json",
			input: `{"components": [{"component_name": "capacitor", "position": {"x": 1, "y": 2}}]}`,
			want: []circuit.Component{
				{Class: circuit.Capacitor, Center: geometry.Point{X: 1, Y: 2}},
			},
		},
		{
			name:  "fenced",
			input: "```yaml\ncomponents:\n  - component_name: inductor\n    position: {x: 5, y: 6}\n```\n",
			want: []circuit.Component{
				{Class: circuit.Inductor, Center: geometry.Point{X: 5, Y: 6}},
			},
		},
		{
			name:  "bare list",
			input: "- component_name: dependent current source\n  position: {x: 7, y: 8}\n",
			want: []circuit.Component{
				{Class: circuit.DependantCurrentSource, Center: geometry.Point{X: 7, Y: 8}},
			},
		},
		{
			name:  "unrecognized name is unknown",
			input: "components:\n  - component_name: transistor\n    position: {x: 1, y: 1}\n",
			want: []circuit.Component{
				{Class: circuit.Unknown, Center: geometry.Point{X: 1, Y: 1}},
			},
		},
		{
			name:  "null components",
			input: "components:\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, skipped, err := Parser{}.Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if skipped != 0 {
				t.Errorf("skipped: got %d, want 0", skipped)
			}
			if set.Len() != len(tt.want) {
				t.Fatalf("Len: got %d, want %d", set.Len(), len(tt.want))
			}
			for i, c := range set.Components {
				w := tt.want[i]
				if c.Class != w.Class || c.Center != w.Center || c.Orientation != w.Orientation {
					t.Errorf("component %d: got %+v, want %+v", i, c, w)
				}
			}
		})
	}
}

func TestParser_SkipsMalformedEntries(t *testing.T) {
	input := `components:
  - component_name: resistor
    position: {x: 1, y: 2}
  - position: {x: 3, y: 4}
  - component_name: capacitor
  - component_name: capacitor
    position: {x: 5}
  - component_name: resistor
    position: {x: .nan, y: 10}
  - component_name: resistor
    position: {x: 10, y: .inf}
  - component_name: resistor
    position: {x: -.inf, y: 10}
  - component_name: capacitor
    position: {x: 9, y: 9}
    approximate_size: 30
`
	set, skipped, err := Parser{}.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if skipped != 6 {
		t.Errorf("skipped: got %d, want 6", skipped)
	}
	if set.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", set.Len())
	}
	last := set.Components[1]
	if last.Class != circuit.Capacitor || last.Size == nil || *last.Size != 30 {
		t.Errorf("last component: got %+v", last)
	}
}

func TestParser_LenientSecondaryFields(t *testing.T) {
	input := `components:
  - component_name: inductor
    position: {x: 1, y: 1}
    positive_input_direction: north
  - component_name: resistor
    position: {x: 2, y: 2}
    positive_input_direction: 90
    approximate_size: big
  - component_name: capacitor
    position: {x: 3, y: 3}
    positive_input_direction: ~
    approximate_size: [40]
`
	set, skipped, err := Parser{}.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped: got %d, want 0", skipped)
	}
	if set.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", set.Len())
	}

	tests := []struct {
		class       circuit.ComponentClass
		orientation int
	}{
		{circuit.Inductor, 0},
		{circuit.Resistor, 90},
		{circuit.Capacitor, 0},
	}
	for i, tt := range tests {
		c := set.Components[i]
		if c.Class != tt.class || c.Orientation != tt.orientation {
			t.Errorf("component %d: got %s/%d, want %s/%d", i, c.Class, c.Orientation, tt.class, tt.orientation)
		}
		if c.Size != nil {
			t.Errorf("component %d: size got %d, want none", i, *c.Size)
		}
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantEmpty bool
	}{
		{"empty", "", true},
		{"whitespace", "  \n\t", true},
		{"empty fence", "```\n```", true},
		{"null document", "~", true},
		{"no components key", "circuit_id: c1\n", true},
		{"not yaml", "components: [unclosed", false},
		{"components is a string", "components: resistor\n", false},
		{"scalar document", "I could not find any components.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parser{}.Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse: expected an error")
			}
			if got := errors.Is(err, ErrEmptyOutput); got != tt.wantEmpty {
				t.Errorf("errors.Is(ErrEmptyOutput): got %v, want %v (%v)", got, tt.wantEmpty, err)
			}
		})
	}
}

func TestParser_LabelDistance(t *testing.T) {
	input := []byte("components:\n  - component_name: resistr\n    position: {x: 1, y: 1}\n")

	strict, _, err := Parser{}.Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if strict.Components[0].Class != circuit.Unknown {
		t.Errorf("strict: got %s, want unknown", strict.Components[0].Class)
	}

	fuzzy, _, err := Parser{LabelDistance: 1}.Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if fuzzy.Components[0].Class != circuit.Resistor {
		t.Errorf("fuzzy: got %s, want resistor", fuzzy.Components[0].Class)
	}
}

func TestRepeat(t *testing.T) {
	var calls int32
	d := DetectorFunc(func(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
		n := atomic.AddInt32(&calls, 1)
		return circuit.NewSet("", circuit.Component{Class: circuit.Resistor, Center: geometry.Point{X: float64(n)}}), nil
	})
	img := createInMemoryImage(10, 10, color.White)

	set, err := Repeat(d, 3).Detect(context.Background(), img, 50, true)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if set.Len() != 3 || calls != 3 {
		t.Fatalf("Repeat: got %d components from %d calls, want 3 and 3", set.Len(), calls)
	}
	for i, c := range set.Components {
		if c.Center.X != float64(i+1) {
			t.Errorf("component %d: got x=%v, want %d", i, c.Center.X, i+1)
		}
	}
}

type staticDetector struct {
	set circuit.ComponentSet
}

func (d *staticDetector) Detect(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
	return d.set, nil
}

func TestRepeat_SingleRunIsIdentity(t *testing.T) {
	d := &staticDetector{}
	for _, n := range []int{-1, 0, 1} {
		if got := Repeat(d, n); got != Detector(d) {
			t.Errorf("Repeat(d, %d) should return d", n)
		}
	}
}

func TestRepeat_StopsOnError(t *testing.T) {
	var calls int32
	boom := errors.New("boom")
	d := DetectorFunc(func(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
		if atomic.AddInt32(&calls, 1) == 2 {
			return circuit.ComponentSet{}, boom
		}
		return circuit.NewSet(""), nil
	})

	_, err := Repeat(d, 5).Detect(context.Background(), createInMemoryImage(4, 4, color.White), 50, true)
	if !errors.Is(err, boom) {
		t.Errorf("Detect: got %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

// TestHelperProcess is the fake recognizer run by the CommandDetector tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	input, _ := io.ReadAll(os.Stdin)
	switch os.Getenv("HELPER_MODE") {
	case "fail":
		fmt.Fprint(os.Stderr, "model unavailable")
		os.Exit(3)
	case "sleep":
		time.Sleep(10 * time.Second)
	default:
		if !bytes.HasPrefix(input, []byte("\x89PNG")) {
			os.Exit(4)
		}
		fmt.Printf("components:\n  - component_name: resistor\n    position: {x: %s, y: 7}\n",
			os.Getenv("PHOTOCIRCUIT_GRID_STEP"))
	}
}

func helperDetector(t *testing.T, mode string, timeout time.Duration) *CommandDetector {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("HELPER_MODE", mode)
	return &CommandDetector{
		Path:    os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Timeout: timeout,
	}
}

func TestCommandDetector_Detect(t *testing.T) {
	d := helperDetector(t, "ok", 30*time.Second)

	set, err := d.Detect(context.Background(), createInMemoryImage(40, 30, color.White), 25, true)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", set.Len())
	}
	want := geometry.Point{X: 25, Y: 7}
	if c := set.Components[0]; c.Class != circuit.Resistor || c.Center != want {
		t.Errorf("component: got %+v, want resistor at %v", c, want)
	}
}

func TestCommandDetector_Failure(t *testing.T) {
	d := helperDetector(t, "fail", 30*time.Second)

	_, err := d.Detect(context.Background(), createInMemoryImage(10, 10, color.White), 50, true)
	if err == nil {
		t.Fatal("Detect: expected an error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Errorf("error should carry stderr: %v", err)
	}
}

func TestCommandDetector_Timeout(t *testing.T) {
	d := helperDetector(t, "sleep", 200*time.Millisecond)

	_, err := d.Detect(context.Background(), createInMemoryImage(10, 10, color.White), 50, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Detect: got %v, want deadline exceeded", err)
	}
}

func TestNewCommandDetector(t *testing.T) {
	d, err := NewCommandDetector("  python3 recognize.py --model gpt  ", Parser{LabelDistance: 2}, time.Second)
	if err != nil {
		t.Fatalf("NewCommandDetector failed: %v", err)
	}
	if d.Path != "python3" || len(d.Args) != 3 || d.Args[2] != "gpt" {
		t.Errorf("command: got %q %q", d.Path, d.Args)
	}
	if d.Parser.LabelDistance != 2 {
		t.Errorf("LabelDistance: got %d, want 2", d.Parser.LabelDistance)
	}

	if _, err := NewCommandDetector("   ", Parser{}, time.Second); err == nil {
		t.Error("NewCommandDetector with empty command: expected an error")
	}
}

func TestHTTPDetector_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if !bytes.HasPrefix(data, []byte("\x89PNG")) {
			http.Error(w, "not a png", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"components":[{"component_name":"capacitor","position":{"x":%s,"y":3}},{"component_name":"resistor"}]}`,
			r.FormValue("grid_step"))
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, Parser{}, 5*time.Second)
	set, err := d.Detect(context.Background(), createInMemoryImage(30, 30, color.White), 40, false)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("Len: got %d, want 1 (entry without position skipped)", set.Len())
	}
	want := geometry.Point{X: 40, Y: 3}
	if c := set.Components[0]; c.Class != circuit.Capacitor || c.Center != want {
		t.Errorf("component: got %+v, want capacitor at %v", c, want)
	}
}

func TestHTTPDetector_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, Parser{}, 5*time.Second)
	_, err := d.Detect(context.Background(), createInMemoryImage(10, 10, color.White), 50, true)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("Detect: got %v, want status 503 error", err)
	}
}
