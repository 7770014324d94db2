package circuit

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// ComponentClass is the closed set of component kinds a detection can carry.
type ComponentClass string

const (
	Resistor               ComponentClass = "resistor"
	Capacitor              ComponentClass = "capacitor"
	VoltageSource          ComponentClass = "voltage_source"
	CurrentSource          ComponentClass = "current_source"
	Inductor               ComponentClass = "inductor"
	DependantVoltageSource ComponentClass = "dependant_voltage_source"
	DependantCurrentSource ComponentClass = "dependant_current_source"
	Unknown                ComponentClass = "unknown"
)

// AllClasses lists every class in a fixed order. Reports iterate in this order.
var AllClasses = []ComponentClass{
	Resistor,
	Capacitor,
	VoltageSource,
	CurrentSource,
	Inductor,
	DependantVoltageSource,
	DependantCurrentSource,
	Unknown,
}

// aliases maps normalized spellings to classes. Keys use single spaces.
var aliases = map[string]ComponentClass{
	"dependent voltage source": DependantVoltageSource,
	"dependent current source": DependantCurrentSource,
}

// Label returns the human form of the class, e.g. "voltage source".
func (c ComponentClass) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

func (c ComponentClass) String() string {
	return string(c)
}

// ParseClass maps a free-form label to a class. Case, surrounding space and
// the separators '_', '-' and ' ' are not significant. Anything unrecognized
// maps to Unknown.
func ParseClass(label string) ComponentClass {
	norm := normalizeLabel(label)
	for _, c := range AllClasses {
		if c.Label() == norm {
			return c
		}
	}
	if c, ok := aliases[norm]; ok {
		return c
	}
	return Unknown
}

// ParseClassFuzzy is ParseClass with tolerance for misspellings: a label
// within maxDistance edits of a class label maps to the closest class. Ties
// resolve to the earlier class in AllClasses. maxDistance 0 is strict.
func ParseClassFuzzy(label string, maxDistance int) ComponentClass {
	if c := ParseClass(label); c != Unknown || maxDistance <= 0 {
		return c
	}

	norm := normalizeLabel(label)
	if norm == "" {
		return Unknown
	}
	best, bestDist := Unknown, maxDistance+1
	for _, c := range AllClasses {
		if c == Unknown {
			continue
		}
		if d := levenshtein.Distance(norm, c.Label()); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func normalizeLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// MarshalText writes the canonical snake_case name.
func (c ComponentClass) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

// UnmarshalText never fails: unknown labels decode to Unknown.
func (c *ComponentClass) UnmarshalText(text []byte) error {
	*c = ParseClass(string(text))
	return nil
}
