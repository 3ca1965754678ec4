// Package preprocessor implements transformations of environment
// observations before they are given to an agent.
package preprocessor

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/environment"
	"gonum.org/v1/gonum/mat"
)

// Preprocessor transforms observations into the states given to an
// agent
type Preprocessor interface {
	Preprocess(obs mat.Vector) *mat.VecDense

	// Reset clears any state held between observations of an episode
	Reset()
}

// None is a Preprocessor that returns a copy of each observation
type None struct{}

// Preprocess returns a copy of obs
func (None) Preprocess(obs mat.Vector) *mat.VecDense {
	return mat.VecDenseCopyOf(obs)
}

// Reset is a no-op
func (None) Reset() {}

// Bind implements the agent.Binder interface
func (None) Bind(agent.View) error {
	return nil
}

// Normalise linearly maps bounded observations to [-1, 1]
type Normalise struct {
	lower *mat.VecDense
	scale *mat.VecDense
}

// NewNormalise returns a new Normalise preprocessor for observations
// with the bounds given by spec. All bounds must be finite.
func NewNormalise(spec environment.Spec) (*Normalise, error) {
	n := spec.LowerBound.Len()
	if spec.UpperBound.Len() != n {
		return nil, fmt.Errorf("newNormalise: invalid bounds \n\twant(%v) "+
			"\n\thave(%v)", n, spec.UpperBound.Len())
	}

	lower := mat.VecDenseCopyOf(spec.LowerBound)
	scale := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		width := spec.UpperBound.AtVec(i) - spec.LowerBound.AtVec(i)
		if width <= 0 || math.IsInf(width, 0) || math.IsNaN(width) {
			return nil, fmt.Errorf("newNormalise: bounds of feature %v "+
				"must be finite and increasing \n\thave([%v, %v])", i,
				spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i))
		}
		scale.SetVec(i, 2/width)
	}

	return &Normalise{lower: lower, scale: scale}, nil
}

// Preprocess returns obs mapped to [-1, 1]
func (n *Normalise) Preprocess(obs mat.Vector) *mat.VecDense {
	state := mat.NewVecDense(obs.Len(), nil)
	state.SubVec(obs, n.lower)
	state.MulElemVec(state, n.scale)
	for i := 0; i < state.Len(); i++ {
		state.SetVec(i, state.AtVec(i)-1)
	}
	return state
}

// Reset is a no-op
func (n *Normalise) Reset() {}

// Bind implements the agent.Binder interface. It returns an error if
// the agent's states do not match the dimension of the bounds.
func (n *Normalise) Bind(view agent.View) error {
	if dim := view.EnvSpec().StateDim; dim != n.lower.Len() {
		return fmt.Errorf("bind: invalid state dimension \n\twant(%v) "+
			"\n\thave(%v)", n.lower.Len(), dim)
	}
	return nil
}
