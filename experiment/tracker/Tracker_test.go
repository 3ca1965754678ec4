package tracker

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// episode returns the TimeSteps of an episode with the given rewards
// on each step after the first
func episode(rewards ...float64) []timestep.TimeStep {
	obs := mat.NewVecDense(1, nil)
	steps := []timestep.TimeStep{timestep.New(timestep.First, 0, 1, obs, 0)}
	for i, r := range rewards {
		stepType := timestep.Mid
		if i == len(rewards)-1 {
			stepType = timestep.Last
		}
		steps = append(steps, timestep.New(stepType, r, 1, obs, i+1))
	}
	return steps
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(filename)

	for _, step := range episode(1, 2, 3) {
		r.Track(step)
	}
	for _, step := range episode(-1, -1) {
		r.Track(step)
	}

	// Unfinished episodes are not saved
	for _, step := range episode(5, 5)[:2] {
		r.Track(step)
	}

	assert.Equal(t, []float64{6, -2}, r.Returns())

	require.NoError(t, r.Save())
	data, err := LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, -2}, data)
}

func TestReturnNonSequential(t *testing.T) {
	r := NewReturn("unused")
	steps := episode(1, 2, 3)

	r.Track(steps[0])
	assert.Panics(t, func() { r.Track(steps[2]) })
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "length.bin")
	e := NewEpisodeLength(filename)

	for _, step := range episode(1, 2, 3) {
		e.Track(step)
	}
	for _, step := range episode(1) {
		e.Track(step)
	}
	assert.Equal(t, []float64{3, 1}, e.Lengths())

	require.NoError(t, e.Save())
	data, err := LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, data)
}

func TestLoadDataMissing(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}
