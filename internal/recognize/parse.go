package recognize

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/geometry"
	"github.com/ironsheep/photocircuit/internal/logger"
)

// ErrEmptyOutput is returned when a recognizer answered with nothing usable.
var ErrEmptyOutput = errors.New("recognizer returned no output")

var fence = []byte("```")

// Parser reads recognizer output of the form
//
//	components:
//	  - component_name: resistor
//	    position: {x: 120, y: 48}
//	    positive_input_direction: 90
//	    approximate_size: 40
//
// A bare list of entries is accepted too, and so is JSON. Entries without a
// name or a finite position are skipped with a warning. An unreadable
// orientation or size is dropped with a warning and the entry is kept.
type Parser struct {
	// LabelDistance is the edit distance tolerated when matching component
	// names to classes. 0 means exact matching after normalization.
	LabelDistance int
}

type rawPosition struct {
	X *float64 `yaml:"x"`
	Y *float64 `yaml:"y"`
}

type rawComponent struct {
	Name        string       `yaml:"component_name"`
	Position    *rawPosition `yaml:"position"`
	Orientation yaml.Node    `yaml:"positive_input_direction"`
	Size        yaml.Node    `yaml:"approximate_size"`
}

// Parse decodes data into a component set. skipped counts the malformed
// entries that were dropped.
func (p Parser) Parse(data []byte) (set circuit.ComponentSet, skipped int, err error) {
	data = stripFence(data)
	if len(data) == 0 {
		return circuit.ComponentSet{}, 0, ErrEmptyOutput
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return circuit.ComponentSet{}, 0, fmt.Errorf("failed to parse recognizer output: %w", err)
	}
	if len(doc.Content) == 0 {
		return circuit.ComponentSet{}, 0, ErrEmptyOutput
	}

	list, err := componentList(doc.Content[0])
	if err != nil {
		return circuit.ComponentSet{}, 0, err
	}
	if list == nil {
		return circuit.NewSet(""), 0, nil
	}

	components := make([]circuit.Component, 0, len(list.Content))
	for i, item := range list.Content {
		c, err := p.component(item)
		if err != nil {
			skipped++
			logger.WithFields(logrus.Fields{
				"entry": i,
				"line":  item.Line,
				"error": err.Error(),
			}).Warn("Skipping malformed recognizer entry")
			continue
		}
		components = append(components, c)
	}
	return circuit.NewSet("", components...), skipped, nil
}

func (p Parser) component(node *yaml.Node) (circuit.Component, error) {
	var raw rawComponent
	if err := node.Decode(&raw); err != nil {
		return circuit.Component{}, err
	}
	if raw.Name == "" {
		return circuit.Component{}, errors.New("missing component_name")
	}
	if raw.Position == nil || raw.Position.X == nil || raw.Position.Y == nil {
		return circuit.Component{}, errors.New("missing position")
	}
	x, y := *raw.Position.X, *raw.Position.Y
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return circuit.Component{}, fmt.Errorf("non-finite position (%v, %v)", x, y)
	}

	c := circuit.Component{
		Class:  circuit.ParseClassFuzzy(raw.Name, p.LabelDistance),
		Center: geometry.Point{X: x, Y: y},
	}
	if orientation, ok := optionalInt(&raw.Orientation, "positive_input_direction"); ok {
		c.Orientation = orientation
	}
	if size, ok := optionalInt(&raw.Size, "approximate_size"); ok {
		c.Size = &size
	}
	return c, nil
}

// optionalInt decodes a secondary field. Absent and null fields are not
// reported; anything that is not an integer is logged and ignored.
func optionalInt(node *yaml.Node, field string) (int, bool) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return 0, false
	}
	var v int
	if err := node.Decode(&v); err != nil {
		logger.WithFields(logrus.Fields{
			"field": field,
			"line":  node.Line,
			"value": node.Value,
		}).Warn("Ignoring unreadable recognizer field")
		return 0, false
	}
	return v, true
}

// componentList finds the entry sequence in a document. A nil list with a
// nil error means the document declares no components.
func componentList(root *yaml.Node) (*yaml.Node, error) {
	switch root.Kind {
	case yaml.SequenceNode:
		return root, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value != "components" {
				continue
			}
			v := root.Content[i+1]
			switch {
			case v.Kind == yaml.SequenceNode:
				return v, nil
			case v.Kind == yaml.ScalarNode && v.Tag == "!!null":
				return nil, nil
			default:
				return nil, fmt.Errorf("components must be a list, got line %d", v.Line)
			}
		}
		return nil, fmt.Errorf("%w: no components key", ErrEmptyOutput)
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, ErrEmptyOutput
		}
	}
	return nil, fmt.Errorf("unexpected recognizer output at line %d", root.Line)
}

// stripFence removes a surrounding markdown code fence, which chat models
// like to add.
func stripFence(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, fence) {
		return data
	}
	if nl := bytes.IndexByte(data, '\n'); nl >= 0 {
		data = data[nl+1:]
	} else {
		data = nil
	}
	data = bytes.TrimSpace(data)
	data = bytes.TrimSuffix(data, fence)
	return bytes.TrimSpace(data)
}
