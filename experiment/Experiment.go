// Package experiment implements functionality for running an agent in
// an environment
package experiment

import (
	"context"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	"github.com/samuelfneumann/goddpg/policy"
	"github.com/samuelfneumann/goddpg/preprocessor"
	"github.com/samuelfneumann/goddpg/timestep"
)

// Experiment runs an agent in an environment. Each TimeStep of the
// experiment is sent to the registered Trackers, which determine what
// data is saved, and to the registered Checkpointers, which determine
// when the agent is saved.
type Experiment interface {
	// Run runs episodes until the step limit of the experiment is
	// reached or ctx is cancelled
	Run(ctx context.Context) error

	// RunEpisode runs a single episode and returns whether the step
	// limit of the experiment has been reached
	RunEpisode(ctx context.Context) (bool, error)

	// Register adds a Tracker to the (possibly already running)
	// experiment
	Register(t tracker.Tracker)

	// Save saves the data of all Trackers
	Save() error
}

// Agent is an agent.Agent that was compiled with a policy and a
// preprocessor
type Agent interface {
	agent.Agent
	Policy() policy.Policy
	Preprocessor() preprocessor.Preprocessor
}

// Memory stores the transitions generated in an experiment
type Memory interface {
	Add(timestep.Transition) error
}

// Option configures an Online experiment
type Option func(*Online)

// WithTrackers registers trackers with the experiment
func WithTrackers(t ...tracker.Tracker) Option {
	return func(o *Online) {
		o.trackers = append(o.trackers, t...)
	}
}

// WithCheckpointers registers checkpointers with the experiment
func WithCheckpointers(c ...checkpointer.Checkpointer) Option {
	return func(o *Online) {
		o.checkpointers = append(o.checkpointers, c...)
	}
}

// WithEpisodeHook sets a function that is called with the SysVars of
// each episode after the episode ends
func WithEpisodeHook(f func(agent.SysVars)) Option {
	return func(o *Online) {
		o.onEpisode = f
	}
}
