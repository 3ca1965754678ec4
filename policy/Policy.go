// Package policy implements transformations of the actions an agent
// selects before they are taken in an environment.
package policy

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// Policy transforms the raw action selected by an agent into the
// action taken in the environment
type Policy interface {
	Apply(action *mat.VecDense) *mat.VecDense
}

// Identity is a Policy which takes actions unchanged
type Identity struct{}

// Apply returns action
func (Identity) Apply(action *mat.VecDense) *mat.VecDense {
	return action
}

// Bind implements the agent.Binder interface
func (Identity) Bind(agent.View) error {
	return nil
}

// Bounded is a Policy which clips each action dimension to the
// bounds of an environment's actions
type Bounded struct {
	lower mat.Vector
	upper mat.Vector
}

// NewBounded returns a new Bounded policy which clips actions to the
// bounds given by spec
func NewBounded(spec environment.Spec) (*Bounded, error) {
	if spec.Type != environment.Action {
		return nil, fmt.Errorf("newBounded: spec does not describe actions")
	}
	if spec.LowerBound.Len() != spec.UpperBound.Len() {
		return nil, fmt.Errorf("newBounded: invalid bounds \n\twant(%v) "+
			"\n\thave(%v)", spec.LowerBound.Len(), spec.UpperBound.Len())
	}
	for i := 0; i < spec.LowerBound.Len(); i++ {
		if spec.LowerBound.AtVec(i) > spec.UpperBound.AtVec(i) {
			return nil, fmt.Errorf("newBounded: lower bound %v exceeds "+
				"upper bound %v", spec.LowerBound.AtVec(i),
				spec.UpperBound.AtVec(i))
		}
	}

	return &Bounded{
		lower: mat.VecDenseCopyOf(spec.LowerBound),
		upper: mat.VecDenseCopyOf(spec.UpperBound),
	}, nil
}

// Apply returns a copy of action with each dimension clipped to the
// action bounds
func (b *Bounded) Apply(action *mat.VecDense) *mat.VecDense {
	clipped := mat.VecDenseCopyOf(action)
	floatutils.ClipVec(clipped, b.lower, b.upper)
	return clipped
}

// Bind implements the agent.Binder interface. It returns an error if
// the agent's actions do not match the dimension of the bounds.
func (b *Bounded) Bind(view agent.View) error {
	if dim := view.EnvSpec().ActionDim; dim != b.lower.Len() {
		return fmt.Errorf("bind: invalid action dimension \n\twant(%v) "+
			"\n\thave(%v)", b.lower.Len(), dim)
	}
	return nil
}
