package tracker

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/timestep"
)

// Return tracks and saves the episodic return in an experiment. The
// rewards of each TimeStep are accumulated until the last TimeStep of
// an episode is tracked, at which point the return of the episode is
// cached.
//
// An episode must finish for its return to be saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker which saves its
// data to filename
func NewReturn(filename string) *Return {
	return &Return{
		lastTimeStep: -1,
		filename:     filename,
	}
}

// Track tracks the reward of a TimeStep. Track panics if TimeSteps
// within an episode are not tracked sequentially.
func (r *Return) Track(step timestep.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	if !step.Last() {
		r.lastTimeStep = step.Number
		return
	}

	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0.0
	r.lastTimeStep = -1
}

// Returns returns a copy of the returns of all finished episodes
func (r *Return) Returns() []float64 {
	returns := make([]float64, len(r.episodeReturns))
	copy(returns, r.episodeReturns)
	return returns
}

// Save saves the episodic returns to disk
func (r *Return) Save() error {
	if err := save(r.filename, r.episodeReturns); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
