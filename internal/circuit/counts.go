package circuit

import (
	"fmt"
	"strings"
)

// Counts tallies components per class. Absent classes count as zero.
type Counts map[ComponentClass]int

// Counts returns the per-class tally of the set.
func (s ComponentSet) Counts() Counts {
	counts := make(Counts)
	for _, c := range s.Components {
		counts[c.Class]++
	}
	return counts
}

// Equal compares two tallies as multisets: explicit zeros and missing keys
// are the same.
func (c Counts) Equal(other Counts) bool {
	for _, class := range unionClasses(c, other) {
		if c[class] != other[class] {
			return false
		}
	}
	return true
}

// Diff compares the class counts of expected and actual. When they match it
// returns "No difference" and true; otherwise one line per differing class.
func Diff(expected, actual ComponentSet) (string, bool) {
	expectedCounts := expected.Counts()
	actualCounts := actual.Counts()

	if expectedCounts.Equal(actualCounts) {
		return "No difference", true
	}

	var b strings.Builder
	b.WriteString("Differences found in component counts:\n")
	for _, class := range unionClasses(expectedCounts, actualCounts) {
		e, a := expectedCounts[class], actualCounts[class]
		if e != a {
			fmt.Fprintf(&b, "%s: Expected %d, Found %d\n", class.Label(), e, a)
		}
	}
	return b.String(), false
}

// Summary describes the set as a component total followed by per-class counts.
func Summary(s ComponentSet) string {
	counts := s.Counts()
	lines := make([]string, 0, len(counts))
	for _, class := range AllClasses {
		if n, ok := counts[class]; ok {
			lines = append(lines, fmt.Sprintf("%s: %d", class.Label(), n))
		}
	}
	return fmt.Sprintf("detected %d components\ncomponent counts: %s", s.Len(), strings.Join(lines, "\n"))
}

// unionClasses returns the classes present in either tally, in AllClasses order.
func unionClasses(a, b Counts) []ComponentClass {
	var classes []ComponentClass
	for _, class := range AllClasses {
		_, inA := a[class]
		_, inB := b[class]
		if inA || inB {
			classes = append(classes, class)
		}
	}
	return classes
}
