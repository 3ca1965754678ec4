package ddpg

import (
	"encoding/gob"
	"fmt"
	"io"
)

// Weights holds copies of the weights of each network of a DDPG agent
type Weights struct {
	Actor        [][]float64
	TargetActor  [][]float64
	Critic       [][]float64
	TargetCritic [][]float64
}

// checkpoint is the gob-encoded state of a DDPG agent
type checkpoint struct {
	Weights       Weights
	GradientSteps int
}

// Weights returns a copy of the weights of the agent's networks
func (d *DDPG) Weights() Weights {
	return Weights{
		Actor:        d.actor.Weights(),
		TargetActor:  d.targetActor.Weights(),
		Critic:       d.critic.Weights(),
		TargetCritic: d.targetCritic.Weights(),
	}
}

// SetWeights sets the weights of the agent's networks. The actor used
// for action selection is set to the new actor weights.
func (d *DDPG) SetWeights(w Weights) error {
	if err := d.actor.SetWeights(w.Actor); err != nil {
		return fmt.Errorf("setWeights: actor: %v", err)
	}
	if err := d.targetActor.SetWeights(w.TargetActor); err != nil {
		return fmt.Errorf("setWeights: target actor: %v", err)
	}
	if err := d.critic.SetWeights(w.Critic); err != nil {
		return fmt.Errorf("setWeights: critic: %v", err)
	}
	if err := d.targetCritic.SetWeights(w.TargetCritic); err != nil {
		return fmt.Errorf("setWeights: target critic: %v", err)
	}
	if err := d.behaviour.Set(d.actor); err != nil {
		return fmt.Errorf("setWeights: behaviour actor: %v", err)
	}
	return nil
}

// Save writes the weights of the agent's networks and the number of
// gradient steps taken to w
func (d *DDPG) Save(w io.Writer) error {
	c := checkpoint{
		Weights:       d.Weights(),
		GradientSteps: d.gradientSteps,
	}
	if err := gob.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Load restores the state written by Save from r. The agent must have
// been created with the same environment specification and
// architecture as the agent that was saved.
func (d *DDPG) Load(r io.Reader) error {
	var c checkpoint
	if err := gob.NewDecoder(r).Decode(&c); err != nil {
		return fmt.Errorf("load: %v", err)
	}

	if err := d.SetWeights(c.Weights); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	d.gradientSteps = c.GradientSteps
	return nil
}
