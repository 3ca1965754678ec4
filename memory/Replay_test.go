package memory

import (
	"testing"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func transition(i float64, terminal bool) timestep.Transition {
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{i, -i}),
		Action:    mat.NewVecDense(1, []float64{10 * i}),
		Reward:    i,
		NextState: mat.NewVecDense(2, []float64{i + 1, -i - 1}),
		Terminal:  terminal,
	}
}

func TestRandMinibatchErrors(t *testing.T) {
	r, err := NewReplay(2, 5, 2, 1, 1)
	require.NoError(t, err)

	_, err = r.RandMinibatch(4)
	assert.True(t, IsEmptyBuffer(err))
	assert.False(t, IsInsufficientSamples(err))

	require.NoError(t, r.Add(transition(1, false)))
	_, err = r.RandMinibatch(4)
	assert.True(t, IsInsufficientSamples(err))
	assert.False(t, IsEmptyBuffer(err))

	require.NoError(t, r.Add(transition(2, false)))
	batch, err := r.RandMinibatch(4)
	require.NoError(t, err)
	assert.Equal(t, 4, batch.Len())
	assert.NoError(t, batch.Validate(2, 1))
}

func TestRandMinibatchAlignment(t *testing.T) {
	r, err := NewReplay(1, 10, 2, 1, 7)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Add(transition(float64(i), i%3 == 0)))
	}

	batch, err := r.RandMinibatch(32)
	require.NoError(t, err)
	for i := 0; i < batch.Len(); i++ {
		reward := batch.Rewards[i]
		assert.Equal(t, []float64{reward, -reward}, batch.States[2*i:2*i+2])
		assert.Equal(t, []float64{reward + 1, -reward - 1},
			batch.NextStates[2*i:2*i+2])
		assert.Equal(t, 10*reward, batch.Actions[i])

		wantTerminal := 0.0
		if int(reward)%3 == 0 {
			wantTerminal = 1.0
		}
		assert.Equal(t, wantTerminal, batch.Terminals[i])
	}
}

func TestReplayOverwritesOldest(t *testing.T) {
	r, err := NewReplay(1, 3, 2, 1, 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Add(transition(float64(i), false)))
	}
	assert.Equal(t, 3, r.Len())

	batch, err := r.RandMinibatch(100)
	require.NoError(t, err)
	for _, reward := range batch.Rewards {
		assert.GreaterOrEqual(t, reward, 2.0)
	}
}

func TestReplayAddInvalid(t *testing.T) {
	r, err := NewReplay(1, 3, 2, 1, 1)
	require.NoError(t, err)

	bad := transition(1, false)
	bad.Action = mat.NewVecDense(2, nil)
	assert.Error(t, r.Add(bad))
	assert.Equal(t, 0, r.Len())
}

func TestNewReplayInvalid(t *testing.T) {
	_, err := NewReplay(5, 3, 2, 1, 1)
	assert.Error(t, err)
	_, err = NewReplay(1, 0, 2, 1, 1)
	assert.Error(t, err)
	_, err = NewReplay(1, 3, 0, 1, 1)
	assert.Error(t, err)
}

func TestMinibatchValidate(t *testing.T) {
	batch := Minibatch{
		States:     []float64{1, 2, 3, 4},
		Actions:    []float64{1, 2},
		Rewards:    []float64{1, 2},
		NextStates: []float64{1, 2, 3, 4},
		Terminals:  []float64{0},
	}
	assert.Error(t, batch.Validate(2, 1))

	batch.Terminals = []float64{0, 1}
	assert.NoError(t, batch.Validate(2, 1))
	assert.Error(t, batch.Validate(3, 1))
}

type fakeView agent.EnvSpec

func (f fakeView) EnvSpec() agent.EnvSpec { return agent.EnvSpec(f) }
func (f fakeView) Phase() agent.Phase     { return agent.Constructed }

func TestReplayBind(t *testing.T) {
	r, err := NewReplay(1, 5, 2, 1, 1)
	require.NoError(t, err)

	assert.NoError(t, r.Bind(fakeView{StateDim: 2, ActionDim: 1,
		TimestepLimit: 10}))
	assert.Error(t, r.Bind(fakeView{StateDim: 3, ActionDim: 1,
		TimestepLimit: 10}))
	assert.Error(t, r.Bind(fakeView{StateDim: 2, ActionDim: 2,
		TimestepLimit: 10}))
}
