// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward      float64
	Discount    float64
	Observation mat.Vector
	Number      int
}

// New returns a new TimeStep
func New(t StepType, r, d float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, r, d, o, n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}

// Transition is a single (s, a, r, s', terminal) tuple that can be
// stored in a replay memory.
//
// Terminal is true only if NextState ended the episode on its own
// (not through a timestep limit), in which case bootstrapping from
// NextState is masked out.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	NextState *mat.VecDense
	Terminal  bool
}

// NewTransition creates a Transition from two consecutive TimeSteps
// and the action taken between them. The transition is terminal if
// the next step is the last of the episode and has a zero discount.
func NewTransition(step TimeStep, action *mat.VecDense,
	nextStep TimeStep) Transition {
	state := mat.VecDenseCopyOf(step.Observation)
	nextState := mat.VecDenseCopyOf(nextStep.Observation)

	return Transition{
		State:     state,
		Action:    mat.VecDenseCopyOf(action),
		Reward:    nextStep.Reward,
		NextState: nextState,
		Terminal:  nextStep.Last() && nextStep.Discount == 0,
	}
}

// TerminalFloat returns 1.0 if the transition is terminal and 0.0
// otherwise
func (t Transition) TerminalFloat() float64 {
	if t.Terminal {
		return 1.0
	}
	return 0.0
}
