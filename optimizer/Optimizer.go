// Package optimizer implements an Optimizer that hands out one
// independent solver per network of an actor-critic agent.
//
// Before Split is called, an Optimizer exposes a single prototype
// Solver. Split clones the prototype once per network so that no two
// networks share solver state such as momentum. After Split, only the
// clones are available.
package optimizer

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/goddpg/solver"
)

var (
	// ErrSplit is returned when the prototype Solver is requested
	// after the Optimizer has been split
	ErrSplit = errors.New("optimizer: already split")

	// ErrNotSplit is returned when a per-network Solver is requested
	// before the Optimizer has been split
	ErrNotSplit = errors.New("optimizer: not split")
)

// Optimizer holds one solver for each of the actor, target actor,
// critic, and target critic networks
type Optimizer struct {
	prototype *solver.Solver

	actor        *solver.Solver
	targetActor  *solver.Solver
	critic       *solver.Solver
	targetCritic *solver.Solver
}

// New returns a new Optimizer whose per-network solvers will be clones
// of s
func New(s *solver.Solver) (*Optimizer, error) {
	if s == nil {
		return nil, fmt.Errorf("new: nil solver")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return &Optimizer{prototype: s}, nil
}

// Solver returns the prototype Solver. After Split, ErrSplit is
// returned instead.
func (o *Optimizer) Solver() (*solver.Solver, error) {
	if o.IsSplit() {
		return nil, ErrSplit
	}
	return o.prototype, nil
}

// IsSplit returns whether Split has been called
func (o *Optimizer) IsSplit() bool {
	return o.prototype == nil
}

// Split clones the prototype Solver into four independent solvers,
// one per network, and drops the prototype
func (o *Optimizer) Split() error {
	if o.IsSplit() {
		return ErrSplit
	}

	clones := make([]*solver.Solver, 4)
	for i := range clones {
		clone, err := o.prototype.Clone()
		if err != nil {
			return fmt.Errorf("split: could not clone solver: %v", err)
		}
		clones[i] = clone
	}

	o.actor = clones[0]
	o.targetActor = clones[1]
	o.critic = clones[2]
	o.targetCritic = clones[3]
	o.prototype = nil

	return nil
}

// Actor returns the solver of the actor network
func (o *Optimizer) Actor() (*solver.Solver, error) {
	return o.get(o.actor)
}

// TargetActor returns the solver of the target actor network
func (o *Optimizer) TargetActor() (*solver.Solver, error) {
	return o.get(o.targetActor)
}

// Critic returns the solver of the critic network
func (o *Optimizer) Critic() (*solver.Solver, error) {
	return o.get(o.critic)
}

// TargetCritic returns the solver of the target critic network
func (o *Optimizer) TargetCritic() (*solver.Solver, error) {
	return o.get(o.targetCritic)
}

func (o *Optimizer) get(s *solver.Solver) (*solver.Solver, error) {
	if !o.IsSplit() {
		return nil, ErrNotSplit
	}
	return s, nil
}

// String implements the fmt.Stringer interface
func (o *Optimizer) String() string {
	if o.IsSplit() {
		return fmt.Sprintf("Optimizer(split: %v)", o.actor.Type)
	}
	return fmt.Sprintf("Optimizer(%v)", o.prototype.Type)
}
