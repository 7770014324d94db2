// Package fixtures loads labeled circuit photos for evaluation.
//
// A fixture store holds two trees keyed by circuit id:
//
//	circuits_raw/<id>.png     the photo
//	components/<id>.yaml      its ground truth
//
// Ground-truth files list bounding boxes; a component's position is the box
// center, rounded down. Only ids present in both trees are fixtures.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/geometry"
)

// ErrNoFixtures is returned when a store has no id with both a photo and a
// ground-truth file.
var ErrNoFixtures = errors.New("no fixtures found")

const (
	imagesDir = "circuits_raw"
	labelsDir = "components"
	imageExt  = ".png"
	labelExt  = ".yaml"
)

// Box is a ground-truth bounding box: top-left corner plus size, in pixels.
type Box struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Center returns the box center with integer division.
func (b Box) Center() geometry.Point {
	return geometry.Point{X: float64(b.X + b.W/2), Y: float64(b.Y + b.H/2)}
}

type labeledComponent struct {
	BBox Box    `yaml:"bbox"`
	Name string `yaml:"component_name"`
}

type labelFile struct {
	CircuitID  string             `yaml:"circuit_id"`
	Components []labeledComponent `yaml:"components"`
}

// ParseGroundTruth reads a ground-truth YAML document. The box of every
// component is kept as its bounds; boxes must have a positive width and
// height.
func ParseGroundTruth(data []byte) (circuit.ComponentSet, error) {
	var f labelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return circuit.ComponentSet{}, fmt.Errorf("failed to parse ground truth: %w", err)
	}

	components := make([]circuit.Component, 0, len(f.Components))
	for i, lc := range f.Components {
		box := geometry.BoundingBox{
			X: float64(lc.BBox.X),
			Y: float64(lc.BBox.Y),
			W: float64(lc.BBox.W),
			H: float64(lc.BBox.H),
		}
		if !box.Valid() {
			return circuit.ComponentSet{}, fmt.Errorf("component %d has an empty box %dx%d", i, lc.BBox.W, lc.BBox.H)
		}
		components = append(components, circuit.Component{
			Class:  circuit.ParseClass(lc.Name),
			Center: lc.BBox.Center(),
			Bounds: &box,
		})
	}
	return circuit.NewSet(f.CircuitID, components...), nil
}

// Fixture is one labeled photo.
type Fixture struct {
	ID          string
	Image       image.Image
	GroundTruth circuit.ComponentSet
}

// Source lists and loads fixtures.
type Source interface {
	// IDs returns the fixture ids in ascending order.
	IDs(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) (*Fixture, error)
}

// LoadAll loads every fixture of src in id order.
func LoadAll(ctx context.Context, src Source) ([]*Fixture, error) {
	ids, err := src.IDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoFixtures
	}

	out := make([]*Fixture, 0, len(ids))
	for _, id := range ids {
		f, err := src.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// fixtureID is the file name up to its first dot.
func fixtureID(name string) string {
	base := path.Base(name)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// pairIDs returns the sorted ids present in both lists.
func pairIDs(images, labels []string) []string {
	have := make(map[string]bool, len(labels))
	for _, id := range labels {
		have[id] = true
	}
	seen := make(map[string]bool, len(images))
	out := make([]string, 0, len(images))
	for _, id := range images {
		if have[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
