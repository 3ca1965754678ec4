// Package memory implements experience replay for off-policy agents.
package memory

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/timestep"
	"golang.org/x/exp/rand"
)

// Replay implements a fixed-size replay buffer. Once the buffer is
// full, each new transition overwrites the oldest transition in the
// buffer. Minibatches are sampled uniformly at random with
// replacement.
type Replay struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	nextStateCache []float64
	terminalCache  []float64

	currentInUsePos int
	isFull          bool

	rng *rand.Rand

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// NewReplay returns a new Replay buffer holding at most maxCapacity
// transitions with states of size featureSize and actions of size
// actionSize. The buffer cannot be sampled until it holds at least
// minCapacity transitions.
func NewReplay(minCapacity, maxCapacity, featureSize, actionSize int,
	seed uint64) (*Replay, error) {
	if maxCapacity < 1 {
		return nil, fmt.Errorf("newReplay: maximum capacity must be "+
			"positive \n\twant(>0) \n\thave(%v)", maxCapacity)
	}
	if minCapacity < 1 || minCapacity > maxCapacity {
		return nil, fmt.Errorf("newReplay: invalid minimum capacity "+
			"\n\twant(1 <= min <= %v) \n\thave(%v)", maxCapacity, minCapacity)
	}
	if featureSize < 1 || actionSize < 1 {
		return nil, fmt.Errorf("newReplay: state and action sizes must be "+
			"positive \n\twant(>0) \n\thave(state: %v, action: %v)",
			featureSize, actionSize)
	}

	return &Replay{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		terminalCache:  make([]float64, maxCapacity),

		rng: rand.New(rand.NewSource(seed)),

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the buffer
func (r *Replay) String() string {
	return fmt.Sprintf("Replay(len: %v, min: %v, max: %v)", r.Len(),
		r.MinCapacity(), r.MaxCapacity())
}

// Len returns the number of transitions in the buffer
func (r *Replay) Len() int {
	if r.isFull {
		return r.MaxCapacity()
	}
	return r.currentInUsePos
}

// MaxCapacity returns the maximum number of transitions allowed in the
// buffer
func (r *Replay) MaxCapacity() int {
	return r.maxCapacity
}

// MinCapacity returns the minimum number of transitions required in
// the buffer before sampling is allowed
func (r *Replay) MinCapacity() int {
	return r.minCapacity
}

// Bind returns an error if the buffer cannot store the transitions of
// the agent viewed by v
func (r *Replay) Bind(v agent.View) error {
	spec := v.EnvSpec()
	if spec.StateDim != r.featureSize || spec.ActionDim != r.actionSize {
		return fmt.Errorf("bind: invalid transition size \n\twant(state: "+
			"%v, action: %v) \n\thave(state: %v, action: %v)",
			spec.StateDim, spec.ActionDim, r.featureSize, r.actionSize)
	}
	return nil
}

// Add adds a transition to the buffer, overwriting the oldest
// transition if the buffer is full
func (r *Replay) Add(t timestep.Transition) error {
	if t.State.Len() != r.featureSize || t.NextState.Len() != r.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v, %v)", r.featureSize, t.State.Len(),
			t.NextState.Len())
	}
	if t.Action.Len() != r.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", r.actionSize, t.Action.Len())
	}

	index := r.currentInUsePos

	stateInd := index * r.featureSize
	copyVec(r.stateCache[stateInd:stateInd+r.featureSize], t.State)
	copyVec(r.nextStateCache[stateInd:stateInd+r.featureSize], t.NextState)

	actionInd := index * r.actionSize
	copyVec(r.actionCache[actionInd:actionInd+r.actionSize], t.Action)

	r.rewardCache[index] = t.Reward
	r.terminalCache[index] = t.TerminalFloat()

	if index+1 == r.MaxCapacity() {
		r.isFull = true
	}
	r.currentInUsePos = (r.currentInUsePos + 1) % r.MaxCapacity()

	return nil
}

// RandMinibatch samples batchSize transitions uniformly at random, with
// replacement, from the buffer
func (r *Replay) RandMinibatch(batchSize int) (Minibatch, error) {
	if batchSize < 1 {
		return Minibatch{}, fmt.Errorf("randMinibatch: batch size must be "+
			"positive \n\twant(>0) \n\thave(%v)", batchSize)
	}
	if r.Len() == 0 {
		return Minibatch{}, &ReplayError{
			Op:  "randMinibatch",
			Err: errEmptyBuffer,
		}
	}
	if r.Len() < r.MinCapacity() {
		return Minibatch{}, &ReplayError{
			Op:  "randMinibatch",
			Err: errInsufficientSamples,
		}
	}

	batch := Minibatch{
		States:     make([]float64, batchSize*r.featureSize),
		Actions:    make([]float64, batchSize*r.actionSize),
		Rewards:    make([]float64, batchSize),
		NextStates: make([]float64, batchSize*r.featureSize),
		Terminals:  make([]float64, batchSize),
	}

	for i := 0; i < batchSize; i++ {
		index := r.rng.Intn(r.Len())

		batchStart := i * r.featureSize
		expStart := index * r.featureSize
		copy(batch.States[batchStart:batchStart+r.featureSize],
			r.stateCache[expStart:expStart+r.featureSize])
		copy(batch.NextStates[batchStart:batchStart+r.featureSize],
			r.nextStateCache[expStart:expStart+r.featureSize])

		batchStart = i * r.actionSize
		expStart = index * r.actionSize
		copy(batch.Actions[batchStart:batchStart+r.actionSize],
			r.actionCache[expStart:expStart+r.actionSize])

		batch.Rewards[i] = r.rewardCache[index]
		batch.Terminals[i] = r.terminalCache[index]
	}

	return batch, nil
}
