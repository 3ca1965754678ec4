package memory

import "fmt"

// Minibatch is a batch of transitions sampled from a replay buffer.
// States, Actions, and NextStates are stored in row-major order, one
// row per transition. Terminals holds 1 for transitions that ended in
// a terminal state and 0 otherwise.
type Minibatch struct {
	States     []float64
	Actions    []float64
	Rewards    []float64
	NextStates []float64
	Terminals  []float64
}

// Len returns the number of transitions in the batch
func (m Minibatch) Len() int {
	return len(m.Rewards)
}

// Validate returns an error if the batch does not hold Len()
// transitions with the given state and action dimensions
func (m Minibatch) Validate(stateDim, actionDim int) error {
	n := m.Len()
	if len(m.Terminals) != n {
		return fmt.Errorf("validate: invalid number of terminals "+
			"\n\twant(%v) \n\thave(%v)", n, len(m.Terminals))
	}
	if len(m.States) != n*stateDim {
		return fmt.Errorf("validate: invalid number of state features "+
			"\n\twant(%v) \n\thave(%v)", n*stateDim, len(m.States))
	}
	if len(m.NextStates) != n*stateDim {
		return fmt.Errorf("validate: invalid number of next state "+
			"features \n\twant(%v) \n\thave(%v)", n*stateDim,
			len(m.NextStates))
	}
	if len(m.Actions) != n*actionDim {
		return fmt.Errorf("validate: invalid number of action dimensions "+
			"\n\twant(%v) \n\thave(%v)", n*actionDim, len(m.Actions))
	}
	return nil
}
