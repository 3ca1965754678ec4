package tracker

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment. If the last episode in an experiment does not finish,
// its length is not saved.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data to filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length if step is the last TimeStep of an
// episode
func (e *EpisodeLength) Track(step timestep.TimeStep) {
	if step.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(step.Number))
	}
}

// Lengths returns a copy of the lengths of all finished episodes
func (e *EpisodeLength) Lengths() []float64 {
	lengths := make([]float64, len(e.episodeLengths))
	copy(lengths, e.episodeLengths)
	return lengths
}

// Save saves the episode lengths to disk
func (e *EpisodeLength) Save() error {
	if err := save(e.filename, e.episodeLengths); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
