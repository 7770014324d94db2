// Package scoring measures how well a predicted component set matches the
// labeled ground truth of the same circuit.
//
// Score is the primary metric: the mean distance from each prediction to the
// nearest ground-truth component of the same class. Its all-or-nothing policy
// on counts and classes is carried by Result, which is either Comparable with
// a finite error or Incomparable with a Reason. Overlap is a coarse layout
// density metric over bounding boxes. Similarity is the earlier percentage
// score kept for comparison with old reports.
//
// All functions are pure and leave their arguments untouched.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ironsheep/photocircuit/internal/circuit"
)

// Status tells whether two sets could be compared.
type Status int

const (
	Comparable Status = iota
	Incomparable
)

func (s Status) String() string {
	if s == Comparable {
		return "comparable"
	}
	return "incomparable"
}

// Reason explains an Incomparable result.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonCountMismatch Reason = "count_mismatch"
	ReasonSpuriousClass Reason = "spurious_class"
	// ReasonFailed marks a circuit whose prediction could not be produced.
	ReasonFailed Reason = "failed"
	// ReasonNonFinite marks positions that produced no finite distance.
	ReasonNonFinite Reason = "non_finite"
)

// Result is the outcome of Score.
type Result struct {
	Status Status
	// Value is the mean positional error in pixels. Only meaningful when
	// Status is Comparable.
	Value  float64
	Reason Reason
	// Class is the predicted class that had no ground-truth instance, for
	// ReasonSpuriousClass.
	Class circuit.ComponentClass
}

func finite(v float64) Result {
	return Result{Status: Comparable, Value: v}
}

func nonFinite() Result {
	return Result{Status: Incomparable, Reason: ReasonNonFinite}
}

func countMismatch() Result {
	return Result{Status: Incomparable, Reason: ReasonCountMismatch}
}

func spuriousClass(c circuit.ComponentClass) Result {
	return Result{Status: Incomparable, Reason: ReasonSpuriousClass, Class: c}
}

// Failed is the result recorded when detection did not complete.
func Failed() Result {
	return Result{Status: Incomparable, Reason: ReasonFailed}
}

// IsComparable reports whether the result carries a finite error.
func (r Result) IsComparable() bool {
	return r.Status == Comparable
}

// Float returns the error as a float, +Inf when incomparable.
func (r Result) Float() float64 {
	if r.Status != Comparable {
		return math.Inf(1)
	}
	return r.Value
}

// String formats the error with two decimals, or "inf".
func (r Result) String() string {
	if r.Status != Comparable {
		return "inf"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

type resultJSON struct {
	Comparable bool                   `json:"comparable"`
	Error      *float64               `json:"error"`
	Reason     Reason                 `json:"reason,omitempty"`
	Class      circuit.ComponentClass `json:"class,omitempty"`
}

// MarshalJSON writes the error as null when incomparable; JSON has no infinity.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Comparable: r.IsComparable(), Reason: r.Reason, Class: r.Class}
	if r.IsComparable() {
		v := r.Value
		out.Error = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{Reason: in.Reason, Class: in.Class}
	if in.Comparable && in.Error != nil {
		r.Status = Comparable
		r.Value = *in.Error
	} else {
		r.Status = Incomparable
	}
	return nil
}
