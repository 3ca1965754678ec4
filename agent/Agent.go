// Package agent defines the interfaces shared by agents and the
// collaborators they are compiled with.
//
// Collaborators never hold a pointer to the agent that uses them.
// Instead, a collaborator that needs to inspect its agent implements
// Binder and receives a View of the agent when the agent is compiled.
package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Agent implements a learning algorithm which selects actions in an
// environment and learns from the experience generated
type Agent interface {
	View

	// SelectAction returns the action to take in state
	SelectAction(state mat.Vector) (*mat.VecDense, error)

	// ToTrain returns whether the agent should train at the current
	// step
	ToTrain(sv SysVars) bool

	// Train trains the agent, records the training loss in sv, and
	// returns the loss
	Train(sv *SysVars) (float64, error)

	// Update performs any bookkeeping needed after each step
	Update(sv *SysVars) error
}

// View is the read-only view of an Agent that is given to the
// collaborators of the Agent
type View interface {
	EnvSpec() EnvSpec
	Phase() Phase
}

// Binder is implemented by collaborators that need to inspect the
// Agent they are compiled with. Bind is called once, when the Agent is
// compiled. A Binder should return an error if it cannot be used with
// the Agent.
type Binder interface {
	Bind(View) error
}

// Phase describes the lifecycle phase of an Agent
type Phase int

// Lifecycle phases of an Agent. An Agent moves from Constructed to
// Compiled when its collaborators are bound, and from Compiled to
// Training when it first trains.
const (
	Constructed Phase = iota
	Compiled
	Training
)

// String implements the fmt.Stringer interface
func (p Phase) String() string {
	switch p {
	case Constructed:
		return "Constructed"
	case Compiled:
		return "Compiled"
	case Training:
		return "Training"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// SysVars holds the variables of an experiment that an Agent reads
// and writes while it learns
type SysVars struct {
	T           int       // Timestep within the current episode
	Done        bool      // Whether the current episode has ended
	Loss        []float64 // Training losses, appended to by Train
	Episode     int
	TotalReward float64 // Return of the current episode so far
}
