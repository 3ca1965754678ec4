package agent

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/pendulum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestEnvSpecJSON(t *testing.T) {
	var spec EnvSpec
	data := `{"state_dim": 3, "action_dim": 1, "timestep_limit": 200}`
	require.NoError(t, json.Unmarshal([]byte(data), &spec))
	assert.Equal(t, EnvSpec{StateDim: 3, ActionDim: 1, TimestepLimit: 200},
		spec)
	assert.NoError(t, spec.Validate())
}

func TestEnvSpecJSONInvalid(t *testing.T) {
	tests := map[string]string{
		"missing key": `{"state_dim": 3, "action_dim": 1}`,
		"unknown key": `{"state_dim": 3, "action_dim": 1, ` +
			`"timestep_limit": 10, "actions_bound": 2}`,
		"wrong type": `{"state_dim": "3", "action_dim": 1, ` +
			`"timestep_limit": 10}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var spec EnvSpec
			err := json.Unmarshal([]byte(data), &spec)
			assert.ErrorIs(t, err, ErrInvalidEnvSpec)
		})
	}
}

func TestEnvSpecValidate(t *testing.T) {
	assert.ErrorIs(t, EnvSpec{StateDim: 0, ActionDim: 1,
		TimestepLimit: 1}.Validate(), ErrInvalidEnvSpec)
	assert.ErrorIs(t, EnvSpec{StateDim: 1, ActionDim: 1}.Validate(),
		ErrInvalidEnvSpec)
}

func TestEnvSpecFrom(t *testing.T) {
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -1, Max: 1},
	}, 1)
	env, _, err := pendulum.NewContinuous(pendulum.NewSwingUp(starter, 200),
		0.99)
	require.NoError(t, err)

	spec, err := EnvSpecFrom(env, 200)
	require.NoError(t, err)
	assert.Equal(t, EnvSpec{StateDim: 2, ActionDim: 1, TimestepLimit: 200},
		spec)

	_, err = EnvSpecFrom(env, 0)
	assert.ErrorIs(t, err, ErrInvalidEnvSpec)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Compiled", Compiled.String())
	assert.Equal(t, "Phase(7)", Phase(7).String())
}
