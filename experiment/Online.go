package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	"github.com/samuelfneumann/goddpg/memory"
	"github.com/samuelfneumann/goddpg/timestep"
)

// Online is an Experiment that trains an agent online. Each step,
// the agent selects an action in the preprocessed observation, the
// action is passed through the agent's policy and taken in the
// environment, and the resulting transition is added to memory. The
// agent is trained whenever it requests training.
type Online struct {
	env    environment.Environment
	agent  Agent
	memory Memory

	maxSteps     int
	currentSteps int
	sv           agent.SysVars

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	onEpisode     func(agent.SysVars)
}

// NewOnline creates and returns a new online experiment which runs
// agent in env for steps total environment steps
func NewOnline(env environment.Environment, a Agent, mem Memory,
	steps int, opts ...Option) (*Online, error) {
	if env == nil || a == nil || mem == nil {
		return nil, fmt.Errorf("newOnline: environment, agent, and " +
			"memory must be non-nil")
	}
	if steps < 1 {
		return nil, fmt.Errorf("newOnline: steps must be positive "+
			"\n\twant(>0) \n\thave(%v)", steps)
	}
	if a.Phase() == agent.Constructed {
		return nil, fmt.Errorf("newOnline: agent must be compiled")
	}

	o := &Online{
		env:      env,
		agent:    a,
		memory:   mem,
		maxSteps: steps,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Register registers a Tracker with the experiment
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// CurrentSteps returns the total number of environment steps taken
func (o *Online) CurrentSteps() int {
	return o.currentSteps
}

// MaxSteps returns the step limit of the experiment
func (o *Online) MaxSteps() int {
	return o.maxSteps
}

// SysVars returns the current SysVars of the experiment
func (o *Online) SysVars() agent.SysVars {
	return o.sv
}

// RunEpisode runs a single episode of the experiment. The episode ends
// when the environment ends it, when the step limit of the experiment
// is reached, or when ctx is cancelled.
func (o *Online) RunEpisode(ctx context.Context) (bool, error) {
	pol := o.agent.Policy()
	pre := o.agent.Preprocessor()

	step := o.env.Reset()
	pre.Reset()
	step.Observation = pre.Preprocess(step.Observation)
	o.track(step)

	o.sv.T = 0
	o.sv.Done = false
	o.sv.TotalReward = 0

	for !step.Last() && o.currentSteps < o.maxSteps {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		action, err := o.agent.SelectAction(step.Observation)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		action = pol.Apply(action)

		nextStep, done := o.env.Step(action)
		nextStep.Observation = pre.Preprocess(nextStep.Observation)
		o.currentSteps++

		t := timestep.NewTransition(step, action, nextStep)
		if err := o.memory.Add(t); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		o.sv.T++
		o.sv.Done = done
		o.sv.TotalReward += nextStep.Reward

		if o.agent.ToTrain(o.sv) {
			if err := o.train(); err != nil {
				return false, fmt.Errorf("runEpisode: %v", err)
			}
		}

		if err := o.agent.Update(&o.sv); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		o.track(nextStep)
		if err := o.checkpoint(nextStep); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		step = nextStep
	}

	if step.Last() {
		o.sv.Episode++
		if o.onEpisode != nil {
			o.onEpisode(o.sv)
		}
	}

	return o.currentSteps >= o.maxSteps, nil
}

// train trains the agent. Training is skipped while the memory holds
// too few transitions to sample from.
func (o *Online) train() error {
	loss, err := o.agent.Train(&o.sv)
	if memory.IsEmptyBuffer(err) || memory.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return err
	}

	for _, t := range o.trackers {
		if lt, ok := t.(tracker.LossTracker); ok {
			lt.TrackLoss(o.currentSteps, loss)
		}
	}
	return nil
}

// Run runs the entire experiment for all steps
func (o *Online) Run(ctx context.Context) error {
	for {
		ended, err := o.RunEpisode(ctx)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if ended {
			return nil
		}
	}
}

// Save saves the data of all Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track sends the current TimeStep to each Tracker
func (o *Online) track(step timestep.TimeStep) {
	for _, t := range o.trackers {
		t.Track(step)
	}
}

// checkpoint sends the current TimeStep to each Checkpointer
func (o *Online) checkpoint(step timestep.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(step); err != nil {
			return err
		}
	}
	return nil
}
