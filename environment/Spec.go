package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what a Spec describes: an action, an
// observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// String implements the fmt.Stringer interface
func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	case Reward:
		return "Reward"
	}
	return fmt.Sprintf("SpecType(%d)", int(s))
}

// Spec describes a continuous box of values in an environment. The
// dimension of the box is the length of its bounds.
type Spec struct {
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
}

// NewSpec returns a Spec of type t bounded elementwise by lowerBound
// and upperBound
func NewSpec(t SpecType, lowerBound, upperBound mat.Vector) (Spec, error) {
	if lowerBound == nil || upperBound == nil {
		return Spec{}, fmt.Errorf("newSpec: bounds must be non-nil")
	}
	if lowerBound.Len() != upperBound.Len() {
		return Spec{}, fmt.Errorf("newSpec: bounds must have equal "+
			"lengths \n\twant(%v) \n\thave(%v)", lowerBound.Len(),
			upperBound.Len())
	}
	for i := 0; i < lowerBound.Len(); i++ {
		if lowerBound.AtVec(i) > upperBound.AtVec(i) {
			return Spec{}, fmt.Errorf("newSpec: lower bound %v exceeds "+
				"upper bound %v at index %v", lowerBound.AtVec(i),
				upperBound.AtVec(i), i)
		}
	}
	return Spec{Type: t, LowerBound: lowerBound, UpperBound: upperBound}, nil
}

// MustSpec is like NewSpec but panics if the bounds are invalid
func MustSpec(t SpecType, lowerBound, upperBound mat.Vector) Spec {
	s, err := NewSpec(t, lowerBound, upperBound)
	if err != nil {
		panic(err)
	}
	return s
}

// Dim returns the dimension of the values described
func (s Spec) Dim() int {
	return s.LowerBound.Len()
}

// Contains returns whether v lies within the bounds of the Spec
func (s Spec) Contains(v mat.Vector) bool {
	if v.Len() != s.Dim() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < s.LowerBound.AtVec(i) ||
			v.AtVec(i) > s.UpperBound.AtVec(i) {
			return false
		}
	}
	return true
}
