package ddpg

import (
	"bytes"
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/memory"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	"github.com/samuelfneumann/goddpg/optimizer"
	"github.com/samuelfneumann/goddpg/policy"
	"github.com/samuelfneumann/goddpg/preprocessor"
	"github.com/samuelfneumann/goddpg/solver"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

const (
	stateDim  = 3
	actionDim = 2
	batchSize = 4
)

func testSpec() agent.EnvSpec {
	return agent.EnvSpec{
		StateDim:      stateDim,
		ActionDim:     actionDim,
		TimestepLimit: 10,
	}
}

func testConfig() Config {
	c := DefaultConfig()
	c.BatchSize = batchSize
	c.HiddenLayers = network.Architecture{
		{Units: 5, Bias: true, Activation: network.Sigmoid()},
		{Units: 3, Bias: true, Activation: network.TanH()},
	}
	return c
}

func newAgent(t *testing.T, c Config) *DDPG {
	t.Helper()

	d, err := New(testSpec(), c, 1)
	require.NoError(t, err)
	d.SetLogger(log.New(io.Discard, "", 0))
	t.Cleanup(func() { d.Close() })

	return d
}

func newOptimizer(t *testing.T) *optimizer.Optimizer {
	t.Helper()

	s, err := solver.NewVanilla(0.01, 1, -1)
	require.NoError(t, err)
	opt, err := optimizer.New(s)
	require.NoError(t, err)

	return opt
}

func compile(t *testing.T, d *DDPG, mem Memory) {
	t.Helper()
	require.NoError(t, d.Compile(mem, newOptimizer(t), policy.Identity{},
		preprocessor.None{}))
}

// testBatch returns a minibatch of batchSize transitions
func testBatch() memory.Minibatch {
	b := memory.Minibatch{
		States:     make([]float64, batchSize*stateDim),
		Actions:    make([]float64, batchSize*actionDim),
		Rewards:    make([]float64, batchSize),
		NextStates: make([]float64, batchSize*stateDim),
		Terminals:  make([]float64, batchSize),
	}
	for i := range b.States {
		b.States[i] = math.Sin(float64(i))
		b.NextStates[i] = math.Cos(float64(i))
	}
	for i := range b.Actions {
		b.Actions[i] = 0.1 * float64(i)
	}
	for i := range b.Rewards {
		b.Rewards[i] = float64(i) - 1
	}
	b.Terminals[batchSize-1] = 1
	return b
}

func TestNewInvalid(t *testing.T) {
	spec := testSpec()
	spec.ActionDim = 0
	_, err := New(spec, testConfig(), 1)
	assert.True(t, errors.Is(err, agent.ErrInvalidEnvSpec))

	c := testConfig()
	c.Gamma = 1.5
	_, err = New(testSpec(), c, 1)
	assert.Error(t, err)

	c = testConfig()
	c.Noise = noise.NewConfig(noise.OrnsteinUhlenbeckParams{
		Theta: 0.15,
		Sigma: 0.3,
		Dt:    1e-2,
		X0:    []float64{0, 0, 0},
	})
	_, err = New(testSpec(), c, 1)
	assert.Error(t, err, "x0 does not match the action dimension")
}

func TestSelectAction(t *testing.T) {
	d := newAgent(t, testConfig())
	assert.Equal(t, agent.Constructed, d.Phase())

	expectedNoise, err := testConfig().Noise.Create(actionDim, 1)
	require.NoError(t, err)

	state := mat.NewVecDense(stateDim, []float64{0.1, -0.2, 0.3})
	for i := 0; i < 5; i++ {
		greedy, err := d.greedy(state)
		require.NoError(t, err)

		action, err := d.SelectAction(state)
		require.NoError(t, err)
		require.Equal(t, actionDim, action.Len())

		greedy.AddVec(greedy, expectedNoise.Sample())
		assert.InDeltaSlice(t, greedy.RawVector().Data,
			action.RawVector().Data, 1e-12)
	}

	_, err = d.SelectAction(mat.NewVecDense(stateDim+1, nil))
	assert.Error(t, err)
}

func TestToTrain(t *testing.T) {
	c := testConfig()
	c.TrainPerNNewExp = 3
	d := newAgent(t, c)

	tests := []struct {
		name string
		sv   agent.SysVars
		want bool
	}{
		{"FirstStep", agent.SysVars{T: 0}, false},
		{"FirstStepDone", agent.SysVars{T: 0, Done: true}, false},
		{"BetweenIntervals", agent.SysVars{T: 1}, false},
		{"Interval", agent.SysVars{T: 3}, true},
		{"SecondInterval", agent.SysVars{T: 6}, true},
		{"Done", agent.SysVars{T: 4, Done: true}, true},
		{"NotDone", agent.SysVars{T: 5}, false},
		{"LastStep", agent.SysVars{T: 9}, true},
		{"PastLimit", agent.SysVars{T: 10}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, d.ToTrain(test.sv))
		})
	}
}

func TestTrainNotCompiled(t *testing.T) {
	d := newAgent(t, testConfig())

	var sv agent.SysVars
	_, err := d.Train(&sv)
	assert.True(t, errors.Is(err, ErrNotCompiled))
	assert.Empty(t, sv.Loss)

	_, err = d.TrainAnEpoch()
	assert.True(t, errors.Is(err, ErrNotCompiled))
}

func TestCompile(t *testing.T) {
	d := newAgent(t, testConfig())

	replay, err := memory.NewReplay(1, 10, stateDim, actionDim, 1)
	require.NoError(t, err)
	compile(t, d, replay)
	assert.Equal(t, agent.Compiled, d.Phase())
	assert.Equal(t, policy.Identity{}, d.Policy())
	assert.Equal(t, preprocessor.None{}, d.Preprocessor())

	solvers := []interface{}{d.actorSolver, d.criticSolver,
		d.targetActorSolver, d.targetCriticSolver}
	for i := range solvers {
		require.NotNil(t, solvers[i])
		for j := i + 1; j < len(solvers); j++ {
			assert.NotSame(t, solvers[i], solvers[j])
		}
	}

	err = d.Compile(replay, newOptimizer(t), policy.Identity{},
		preprocessor.None{})
	assert.True(t, errors.Is(err, ErrAlreadyCompiled))
}

func TestCompileBindFailure(t *testing.T) {
	d := newAgent(t, testConfig())

	replay, err := memory.NewReplay(1, 10, stateDim+1, actionDim, 1)
	require.NoError(t, err)
	err = d.Compile(replay, newOptimizer(t), policy.Identity{},
		preprocessor.None{})
	assert.Error(t, err)
	assert.Equal(t, agent.Constructed, d.Phase())

	err = d.Compile(nil, newOptimizer(t), policy.Identity{},
		preprocessor.None{})
	assert.Error(t, err)
}

func TestTrain(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := NewMockMemory(ctrl)

	c := testConfig()
	d := newAgent(t, c)
	compile(t, d, mem)

	mem.EXPECT().RandMinibatch(batchSize).Return(testBatch(), nil).
		Times(c.NEpoch)

	sv := agent.SysVars{T: 1, Loss: []float64{1.0}}
	loss, err := d.Train(&sv)
	require.NoError(t, err)

	require.Len(t, sv.Loss, 2)
	assert.Equal(t, loss, sv.Loss[1])
	assert.False(t, math.IsNaN(loss))
	assert.Equal(t, agent.Training, d.Phase())
	assert.Equal(t, c.NEpoch, d.GradientSteps())

	assert.Equal(t, d.actor.Weights(), d.behaviour.Weights())
}

func TestTrainInsufficientSamples(t *testing.T) {
	d := newAgent(t, testConfig())

	replay, err := memory.NewReplay(10, 20, stateDim, actionDim, 1)
	require.NoError(t, err)
	compile(t, d, replay)

	require.NoError(t, replay.Add(timestep.Transition{
		State:     mat.NewVecDense(stateDim, nil),
		Action:    mat.NewVecDense(actionDim, nil),
		NextState: mat.NewVecDense(stateDim, nil),
	}))

	var sv agent.SysVars
	_, err = d.Train(&sv)
	assert.True(t, memory.IsInsufficientSamples(err))
	assert.Empty(t, sv.Loss)
	assert.Equal(t, 0, d.GradientSteps())
}

func TestTrainInvalidMinibatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := NewMockMemory(ctrl)

	d := newAgent(t, testConfig())
	compile(t, d, mem)

	b := testBatch()
	b.Actions = b.Actions[1:]
	mem.EXPECT().RandMinibatch(batchSize).Return(b, nil)

	_, err := d.TrainAnEpoch()
	assert.Error(t, err)
}

func TestTargetUpdateInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := NewMockMemory(ctrl)
	mem.EXPECT().RandMinibatch(batchSize).Return(testBatch(), nil).AnyTimes()

	c := testConfig()
	c.Tau = 1.0
	c.TargetUpdateInterval = 2
	d := newAgent(t, c)
	compile(t, d, mem)

	initial := d.Weights()
	assert.Equal(t, initial.Actor, initial.TargetActor)
	assert.Equal(t, initial.Critic, initial.TargetCritic)

	_, err := d.TrainAnEpoch()
	require.NoError(t, err)
	w := d.Weights()
	assert.Equal(t, initial.TargetActor, w.TargetActor)
	assert.Equal(t, initial.TargetCritic, w.TargetCritic)

	_, err = d.TrainAnEpoch()
	require.NoError(t, err)
	w = d.Weights()
	assert.Equal(t, w.Actor, w.TargetActor)
	assert.Equal(t, w.Critic, w.TargetCritic)
}

func TestTargetPolyak(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := NewMockMemory(ctrl)
	mem.EXPECT().RandMinibatch(batchSize).Return(testBatch(), nil)

	c := testConfig()
	c.Tau = 0.25
	d := newAgent(t, c)
	compile(t, d, mem)

	initial := d.Weights()
	_, err := d.TrainAnEpoch()
	require.NoError(t, err)
	w := d.Weights()

	check := func(target, live, before [][]float64) {
		require.Len(t, target, len(live))
		for i := range target {
			want := make([]float64, len(live[i]))
			for j := range want {
				want[j] = 0.75*before[i][j] + 0.25*live[i][j]
			}
			assert.InDeltaSlice(t, want, target[i], 1e-9)
		}
	}
	check(w.TargetActor, w.Actor, initial.TargetActor)
	check(w.TargetCritic, w.Critic, initial.TargetCritic)
}

// rowForward runs a batch-1 clone of net, holding weights, on inputs
func rowForward(t *testing.T, net network.NeuralNet, weights [][]float64,
	inputs ...[]float64) []float64 {
	t.Helper()

	clone, err := net.CloneWithBatch(1)
	require.NoError(t, err)
	require.NoError(t, clone.SetWeights(weights))
	require.NoError(t, clone.SetInput(inputs...))

	vm := G.NewTapeMachine(clone.Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	out := clone.Output().Data().([]float64)
	result := make([]float64, len(out))
	copy(result, out)
	return result
}

func TestCriticTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := NewMockMemory(ctrl)
	mem.EXPECT().RandMinibatch(batchSize).Return(testBatch(), nil)

	c := testConfig()
	c.Tau = 0.25
	c.Gamma = 0.9
	d := newAgent(t, c)
	compile(t, d, mem)

	// Move the live networks away from the targets
	_, err := d.TrainAnEpoch()
	require.NoError(t, err)
	w := d.Weights()
	require.NotEqual(t, w.Actor, w.TargetActor)

	b := testBatch()
	targets, err := d.criticTargets(b)
	require.NoError(t, err)
	require.Len(t, targets, batchSize)

	for i := 0; i < batchSize; i++ {
		next := b.NextStates[i*stateDim : (i+1)*stateDim]
		action := rowForward(t, d.targetActor, w.TargetActor, next)
		require.Len(t, action, actionDim)
		q := rowForward(t, d.targetCritic, w.TargetCritic, next, action)
		require.Len(t, q, 1)

		want := b.Rewards[i] + c.Gamma*(1-b.Terminals[i])*q[0]
		assert.InDelta(t, want, targets[i], 1e-9, "row %d", i)
	}

	// A terminal transition does not bootstrap
	last := batchSize - 1
	require.Equal(t, 1.0, b.Terminals[last])
	assert.Equal(t, b.Rewards[last], targets[last])
}

func TestUpdateResetsNoise(t *testing.T) {
	tests := []struct {
		name      string
		reset     bool
		done      bool
		wantReset bool
	}{
		{"ResetOnDone", true, true, true},
		{"ResetNotDone", true, false, false},
		{"NoResetOnDone", false, true, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := testConfig()
			c.ResetNoiseOnDone = test.reset
			d := newAgent(t, c)

			ou, ok := d.Noise().(*noise.OrnsteinUhlenbeck)
			require.True(t, ok)
			for i := 0; i < 3; i++ {
				ou.Sample()
			}
			before := ou.State()

			require.NoError(t, d.Update(&agent.SysVars{Done: test.done}))

			if test.wantReset {
				assert.Equal(t, make([]float64, actionDim),
					ou.State().RawVector().Data)
			} else {
				assert.Equal(t, before, ou.State())
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := NewMockMemory(ctrl)
	mem.EXPECT().RandMinibatch(batchSize).Return(testBatch(), nil).Times(2)

	src := newAgent(t, testConfig())
	compile(t, src, mem)
	for i := 0; i < 2; i++ {
		_, err := src.TrainAnEpoch()
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := newAgent(t, testConfig())
	require.NoError(t, dst.Load(&buf))

	assert.Equal(t, src.Weights(), dst.Weights())
	assert.Equal(t, src.GradientSteps(), dst.GradientSteps())

	state := mat.NewVecDense(stateDim, []float64{1, 2, 3})
	want, err := src.greedy(state)
	require.NoError(t, err)
	have, err := dst.greedy(state)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.RawVector().Data, have.RawVector().Data,
		1e-12)

	other, err := New(agent.EnvSpec{StateDim: stateDim + 1,
		ActionDim: actionDim, TimestepLimit: 10}, testConfig(), 1)
	require.NoError(t, err)
	other.SetLogger(nil)
	defer other.Close()
	assert.Error(t, other.SetWeights(src.Weights()))
}
