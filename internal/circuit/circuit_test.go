package circuit

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/photocircuit/internal/geometry"
)

func comp(class ComponentClass, x, y float64) Component {
	return Component{Class: class, Center: geometry.Point{X: x, Y: y}}
}

func TestParseClass(t *testing.T) {
	tests := []struct {
		label string
		want  ComponentClass
	}{
		{"resistor", Resistor},
		{"Resistor", Resistor},
		{"  capacitor ", Capacitor},
		{"voltage source", VoltageSource},
		{"voltage_source", VoltageSource},
		{"Current-Source", CurrentSource},
		{"inductor", Inductor},
		{"dependant voltage source", DependantVoltageSource},
		{"dependent current source", DependantCurrentSource},
		{"unknown", Unknown},
		{"diode", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseClass(tt.label); got != tt.want {
				t.Errorf("ParseClass(%q): got %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestParseClassFuzzy(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		maxDist int
		want    ComponentClass
	}{
		{"exact still exact", "resistor", 2, Resistor},
		{"one typo", "resistr", 1, Resistor},
		{"typo but strict", "resistr", 0, Unknown},
		{"two typos", "capactor", 2, Capacitor},
		{"too far", "transistor", 2, Unknown},
		{"empty", "", 3, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseClassFuzzy(tt.label, tt.maxDist); got != tt.want {
				t.Errorf("ParseClassFuzzy(%q, %d): got %q, want %q", tt.label, tt.maxDist, got, tt.want)
			}
		})
	}
}

func TestComponentClass_Unmarshal(t *testing.T) {
	var c Component
	if err := yaml.Unmarshal([]byte("component_name: voltage source\nposition: {x: 3, y: 4}\n"), &c); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}
	if c.Class != VoltageSource {
		t.Errorf("Class: got %q, want %q", c.Class, VoltageSource)
	}

	var j Component
	if err := json.Unmarshal([]byte(`{"component_name":"flux capacitor","position":{"x":1,"y":2}}`), &j); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if j.Class != Unknown {
		t.Errorf("Class: got %q, want %q", j.Class, Unknown)
	}

	out, err := json.Marshal(Component{Class: DependantCurrentSource})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), `"component_name":"dependant_current_source"`) {
		t.Errorf("Marshal: got %s", out)
	}
}

func TestRescale_DoesNotMutate(t *testing.T) {
	size := 20
	orig := NewSet("c1", Component{Class: Resistor, Center: geometry.Point{X: 10, Y: 20}, Orientation: 90, Size: &size})

	scaled := orig.Rescale(2)

	if orig.Components[0].Center.X != 10 || orig.Components[0].Center.Y != 20 {
		t.Errorf("input mutated: %+v", orig.Components[0].Center)
	}
	if *orig.Components[0].Size != 20 {
		t.Errorf("input size mutated: %d", *orig.Components[0].Size)
	}

	got := scaled.Components[0]
	if got.Center.X != 20 || got.Center.Y != 40 {
		t.Errorf("Center: got %+v, want (20,40)", got.Center)
	}
	if got.Class != Resistor || got.Orientation != 90 {
		t.Errorf("class/orientation changed: %q %d", got.Class, got.Orientation)
	}
	if *got.Size != 40 {
		t.Errorf("Size: got %d, want 40", *got.Size)
	}
	if scaled.CircuitID != "c1" {
		t.Errorf("CircuitID: got %q, want c1", scaled.CircuitID)
	}
}

func TestRescale_Linear(t *testing.T) {
	s := NewSet("", comp(Resistor, 10, 10), comp(Capacitor, 123.5, 7.25), comp(Inductor, 0, 999))

	factors := [][2]float64{{2, 3}, {0.5, 1.2}, {1.7, 0.3}}
	for _, f := range factors {
		twice := s.Rescale(f[0]).Rescale(f[1])
		once := s.Rescale(f[0] * f[1])
		for i := range s.Components {
			a, b := twice.Components[i].Center, once.Components[i].Center
			if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 {
				t.Errorf("factors %v, component %d: %+v vs %+v", f, i, a, b)
			}
		}
	}
}

func TestScaleFactor(t *testing.T) {
	if got := ScaleFactor(1000, 500); got != 0.5 {
		t.Errorf("ScaleFactor(1000, 500): got %v, want 0.5", got)
	}
	if got := ScaleFactor(1250, 1500); math.Abs(got-1.2) > 1e-12 {
		t.Errorf("ScaleFactor(1250, 1500): got %v, want 1.2", got)
	}
}

func TestBoxes(t *testing.T) {
	size := 10
	s := NewSet("",
		Component{Class: Resistor, Center: geometry.Point{X: 50, Y: 50}, Size: &size},
		Component{Class: Capacitor, Bounds: &geometry.BoundingBox{X: 1, Y: 2, W: 3, H: 4}},
		comp(Inductor, 5, 5),
	)

	boxes := s.Boxes()
	if len(boxes) != 2 {
		t.Fatalf("Boxes: got %d, want 2", len(boxes))
	}
	if boxes[0] != (geometry.BoundingBox{X: 45, Y: 45, W: 10, H: 10}) {
		t.Errorf("boxes[0]: got %+v", boxes[0])
	}
	if boxes[1] != (geometry.BoundingBox{X: 1, Y: 2, W: 3, H: 4}) {
		t.Errorf("boxes[1]: got %+v", boxes[1])
	}
}

func TestConcat(t *testing.T) {
	a := NewSet("a", comp(Resistor, 1, 1))
	b := NewSet("b", comp(Capacitor, 2, 2), comp(Inductor, 3, 3))

	got := Concat(a, b)
	if got.CircuitID != "a" || got.Len() != 3 {
		t.Errorf("Concat: got id %q len %d", got.CircuitID, got.Len())
	}
	if got.Components[2].Class != Inductor {
		t.Errorf("order lost: %+v", got.Components)
	}
}

func TestCounts(t *testing.T) {
	s := NewSet("", comp(Resistor, 0, 0), comp(Resistor, 1, 1), comp(Capacitor, 2, 2))
	counts := s.Counts()
	if counts[Resistor] != 2 || counts[Capacitor] != 1 || counts[Inductor] != 0 {
		t.Errorf("Counts: got %v", counts)
	}

	if !(Counts{Resistor: 1, Inductor: 0}).Equal(Counts{Resistor: 1}) {
		t.Error("explicit zero should equal missing key")
	}
}

func TestDiff_Same(t *testing.T) {
	s := NewSet("", comp(Resistor, 0, 0), comp(VoltageSource, 1, 1))
	msg, ok := Diff(s, s)
	if !ok || msg != "No difference" {
		t.Errorf("Diff(s, s): got (%q, %v), want (\"No difference\", true)", msg, ok)
	}

	empty := NewSet("")
	if msg, ok := Diff(empty, empty); !ok || msg != "No difference" {
		t.Errorf("Diff(empty, empty): got (%q, %v)", msg, ok)
	}
}

func TestDiff_OrderIndependent(t *testing.T) {
	a := NewSet("", comp(Resistor, 0, 0), comp(Capacitor, 1, 1))
	b := NewSet("", comp(Capacitor, 5, 5), comp(Resistor, 9, 9))
	if _, ok := Diff(a, b); !ok {
		t.Error("same classes in a different order should match")
	}
}

func TestDiff_Differs(t *testing.T) {
	expected := NewSet("", comp(Resistor, 0, 0), comp(Resistor, 1, 1), comp(Capacitor, 2, 2))
	actual := NewSet("", comp(Resistor, 0, 0), comp(VoltageSource, 1, 1), comp(Capacitor, 2, 2))

	msg, ok := Diff(expected, actual)
	if ok {
		t.Fatal("Diff should report a mismatch")
	}

	want := "Differences found in component counts:\n" +
		"resistor: Expected 2, Found 1\n" +
		"voltage source: Expected 0, Found 1\n"
	if msg != want {
		t.Errorf("Diff message:\ngot  %q\nwant %q", msg, want)
	}
}

func TestSummary(t *testing.T) {
	s := NewSet("", comp(Capacitor, 0, 0), comp(Resistor, 1, 1), comp(Resistor, 2, 2))
	want := "detected 3 components\ncomponent counts: resistor: 2\ncapacitor: 1"
	if got := Summary(s); got != want {
		t.Errorf("Summary:\ngot  %q\nwant %q", got, want)
	}
}
