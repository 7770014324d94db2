// Package circuit defines labeled circuit components and the operations on
// whole component sets: rescaling between image resolutions, per-class
// counting and count diffs.
//
// A ComponentSet is treated as a value. Every operation returns a new set or
// a derived value and leaves its input untouched.
package circuit

import (
	"math"

	"github.com/ironsheep/photocircuit/internal/geometry"
)

// Component is one labeled circuit element.
//
// Orientation is the angle in degrees, measured from "pointing right", at
// which the positive terminal enters the component. Non-polar components may
// pick either terminal.
type Component struct {
	Class       ComponentClass        `json:"component_name" yaml:"component_name"`
	Center      geometry.Point        `json:"position" yaml:"position"`
	Orientation int                   `json:"positive_input_direction" yaml:"positive_input_direction"`
	Size        *int                  `json:"approximate_size,omitempty" yaml:"approximate_size,omitempty"`
	Bounds      *geometry.BoundingBox `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	ID          string                `json:"id,omitempty" yaml:"id,omitempty"`
}

// Box returns the component's bounding box: the explicit Bounds when present,
// otherwise a Size x Size square around Center. ok is false when neither is known.
func (c Component) Box() (box geometry.BoundingBox, ok bool) {
	if c.Bounds != nil {
		return *c.Bounds, true
	}
	if c.Size != nil && *c.Size > 0 {
		return geometry.BoxAround(c.Center, float64(*c.Size)), true
	}
	return geometry.BoundingBox{}, false
}

// scaled returns a copy with position, size and bounds multiplied by factor.
func (c Component) scaled(factor float64) Component {
	out := c
	out.Center = c.Center.Scale(factor)
	if c.Size != nil {
		size := int(math.Round(float64(*c.Size) * factor))
		out.Size = &size
	}
	if c.Bounds != nil {
		b := c.Bounds.Scale(factor)
		out.Bounds = &b
	}
	return out
}

// ComponentSet is an ordered list of components, optionally tagged with the
// circuit it belongs to.
type ComponentSet struct {
	CircuitID  string      `json:"circuit_id,omitempty" yaml:"circuit_id,omitempty"`
	Components []Component `json:"components" yaml:"components"`
}

// NewSet builds a set from components, copying the slice.
func NewSet(circuitID string, components ...Component) ComponentSet {
	cs := make([]Component, len(components))
	copy(cs, components)
	return ComponentSet{CircuitID: circuitID, Components: cs}
}

// Len returns the number of components.
func (s ComponentSet) Len() int {
	return len(s.Components)
}

// Rescale returns a new set with every position multiplied by factor.
// Class and orientation are kept; sizes and boxes scale along with positions.
func (s ComponentSet) Rescale(factor float64) ComponentSet {
	out := ComponentSet{
		CircuitID:  s.CircuitID,
		Components: make([]Component, len(s.Components)),
	}
	for i, c := range s.Components {
		out.Components[i] = c.scaled(factor)
	}
	return out
}

// Boxes returns the bounding boxes of the components that have one, in order.
func (s ComponentSet) Boxes() []geometry.BoundingBox {
	boxes := make([]geometry.BoundingBox, 0, len(s.Components))
	for _, c := range s.Components {
		if b, ok := c.Box(); ok {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

// Concat returns a set holding the components of all sets in order. The
// circuit id is taken from the first set.
func Concat(sets ...ComponentSet) ComponentSet {
	var out ComponentSet
	for i, s := range sets {
		if i == 0 {
			out.CircuitID = s.CircuitID
		}
		out.Components = append(out.Components, s.Components...)
	}
	return out
}

// ScaleFactor returns the factor that maps positions in an image whose longest
// side is oldLongest onto one whose longest side is newLongest.
// oldLongest must be positive.
func ScaleFactor(oldLongest, newLongest int) float64 {
	return float64(newLongest) / float64(oldLongest)
}
