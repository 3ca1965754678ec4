// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/goddpg/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when episodes end. If an episode should end, End
// sets the StepType of the TimeStep to timestep.Last and returns true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking action in state and
	// transitioning to nextState
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Vector) bool
	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task

	// Reset resets the environment between episodes and returns the
	// first TimeStep of the new episode
	Reset() timestep.TimeStep

	// Step takes an action in the environment and returns the next
	// TimeStep and whether the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool)

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
