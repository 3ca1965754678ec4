package pendulum

import (
	"math"
	"testing"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newPendulum(t *testing.T, steps int) *Continuous {
	t.Helper()
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -1, Max: 1},
	}, 1)
	env, first, err := NewContinuous(NewSwingUp(starter, steps), 0.99)
	require.NoError(t, err)
	assert.True(t, first.First())
	return env
}

func TestStepLimit(t *testing.T) {
	env := newPendulum(t, 5)
	action := mat.NewVecDense(1, []float64{1})

	for i := 1; i <= 5; i++ {
		step, last := env.Step(action)
		assert.Equal(t, i, step.Number)
		assert.Equal(t, i == 5, last)

		th, thdot := step.Observation.AtVec(0), step.Observation.AtVec(1)
		assert.LessOrEqual(t, math.Abs(th), AngleBound)
		assert.LessOrEqual(t, math.Abs(thdot), SpeedBound)
		assert.InDelta(t, math.Cos(th), step.Reward, 1e-12)
	}

	first := env.Reset()
	assert.True(t, first.First())
	assert.Equal(t, 0, first.Number)
}

func TestSpecs(t *testing.T) {
	env := newPendulum(t, 10)

	action := env.ActionSpec()
	assert.Equal(t, environment.Action, action.Type)
	assert.Equal(t, 1, action.Dim())
	assert.Equal(t, -TorqueBound, action.LowerBound.AtVec(0))
	assert.Equal(t, TorqueBound, action.UpperBound.AtVec(0))

	assert.Equal(t, ObservationDims, env.ObservationSpec().Dim())
	assert.Equal(t, 0.99, env.DiscountSpec().LowerBound.AtVec(0))
	assert.Equal(t, -1.0, env.RewardSpec().LowerBound.AtVec(0))
}

func TestNormalizeAngle(t *testing.T) {
	bounds := r1.Interval{Min: -math.Pi, Max: math.Pi}
	assert.InDelta(t, -math.Pi+0.5, normalizeAngle(math.Pi+0.5, bounds),
		1e-12)
	assert.InDelta(t, math.Pi-0.5, normalizeAngle(-math.Pi-0.5, bounds),
		1e-12)
	assert.InDelta(t, 1.0, normalizeAngle(1.0, bounds), 1e-12)
}
