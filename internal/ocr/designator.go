package ocr

import (
	"context"
	"image"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/circuit"
	"github.com/ironsheep/photocircuit/internal/geometry"
	"github.com/ironsheep/photocircuit/internal/logger"
)

// DefaultMinConfidence drops words Tesseract is unsure about.
const DefaultMinConfidence = 0.4

var designatorPattern = regexp.MustCompile(`^([A-Za-z])[0-9]+$`)

// prefixes maps SPICE designator letters to classes.
var prefixes = map[byte]circuit.ComponentClass{
	'R': circuit.Resistor,
	'C': circuit.Capacitor,
	'L': circuit.Inductor,
	'V': circuit.VoltageSource,
	'I': circuit.CurrentSource,
	'E': circuit.DependantVoltageSource,
	'H': circuit.DependantVoltageSource,
	'G': circuit.DependantCurrentSource,
	'F': circuit.DependantCurrentSource,
}

// ParseDesignator maps a word like "R12" to its class. Surrounding
// punctuation is ignored.
func ParseDesignator(word string) (circuit.ComponentClass, bool) {
	word = strings.Trim(strings.TrimSpace(word), ".,;:()[]{}'\"")
	m := designatorPattern.FindStringSubmatch(word)
	if m == nil {
		return circuit.Unknown, false
	}
	class, ok := prefixes[strings.ToUpper(m[1])[0]]
	if !ok {
		return circuit.Unknown, false
	}
	return class, true
}

// ComponentsFromWords keeps the designators among words and places a
// component at the center of each word box. Words below minConfidence are
// ignored.
func ComponentsFromWords(words []Word, minConfidence float64) circuit.ComponentSet {
	components := make([]circuit.Component, 0, len(words))
	for _, w := range words {
		if w.Confidence < minConfidence {
			continue
		}
		class, ok := ParseDesignator(w.Text)
		if !ok {
			continue
		}
		components = append(components, circuit.Component{
			Class: class,
			Center: geometry.Point{
				X: float64(w.Bounds.Min.X+w.Bounds.Max.X) / 2,
				Y: float64(w.Bounds.Min.Y+w.Bounds.Max.Y) / 2,
			},
			ID: strings.ToUpper(strings.Trim(w.Text, ".,;:()[]{}'\"")),
		})
	}
	return circuit.NewSet("", components...)
}

// DesignatorDetector recognizes components from their designator labels.
// The grid arguments of Detect are ignored: grid labels would be read as
// text.
type DesignatorDetector struct {
	Language      string
	MinConfidence float64
}

// NewDesignatorDetector returns a detector for language, "eng" when empty.
func NewDesignatorDetector(language string) *DesignatorDetector {
	if language == "" {
		language = "eng"
	}
	return &DesignatorDetector{Language: language, MinConfidence: DefaultMinConfidence}
}

// Detect implements recognize.Detector.
func (d *DesignatorDetector) Detect(ctx context.Context, img image.Image, gridStep int, includeGrid bool) (circuit.ComponentSet, error) {
	if err := ctx.Err(); err != nil {
		return circuit.ComponentSet{}, err
	}
	words, err := ReadWords(img, d.Language)
	if err != nil {
		return circuit.ComponentSet{}, err
	}
	set := ComponentsFromWords(words, d.MinConfidence)
	logger.WithFields(logrus.Fields{
		"words":      len(words),
		"components": set.Len(),
	}).Debug("OCR designators read")
	return set, nil
}
