package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependent(t *testing.T) {
	s, err := NewDefaultAdam(0.01, 16)
	require.NoError(t, err)

	clone, err := s.Clone()
	require.NoError(t, err)

	assert.Equal(t, s.Type, clone.Type)
	assert.Equal(t, s.Config, clone.Config)
	assert.NotSame(t, s.Solver, clone.Solver)
}

func TestSolverJSON(t *testing.T) {
	adam, err := NewAdam(0.1, 1e-8, 0.9, 0.999, 16, 10000)
	require.NoError(t, err)
	vanilla, err := NewVanilla(0.1, 1, -1)
	require.NoError(t, err)
	rms, err := NewDefaultRMSProp(0.001, 4)
	require.NoError(t, err)

	for _, s := range []*Solver{adam, vanilla, rms} {
		t.Run(string(s.Type), func(t *testing.T) {
			data, err := json.Marshal(s)
			require.NoError(t, err)

			var decoded Solver
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, s.Type, decoded.Type)
			assert.Equal(t, s.Config, decoded.Config)
			assert.NotNil(t, decoded.Solver)
			assert.NoError(t, decoded.Validate())
		})
	}
}

func TestSolverJSONUnknownType(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "AdaGrad", "Config": {}}`), &s)
	assert.Error(t, err)
}

func TestSolverValidate(t *testing.T) {
	_, err := NewDefaultAdam(0, 16)
	assert.Error(t, err)

	_, err = NewVanilla(0.1, 0, -1)
	assert.Error(t, err)

	_, err = NewRMSProp(0.1, 1e-8, 1.5, 1, -1)
	assert.Error(t, err)
}

func TestSolverJSONUnknownField(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "Vanilla",
		"Config": {"StepSize": 0.1, "Momentum": 0.9}}`), &s)
	assert.Error(t, err)
}
