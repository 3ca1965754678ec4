package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestLecunUWithinLimit(t *testing.T) {
	init, err := NewLecunU(1.0)
	require.NoError(t, err)

	values := init.InitWFn()(tensor.Float64, 12, 5).([]float64)
	require.Len(t, values, 60)

	limit := math.Sqrt(3.0 / 12.0)
	for _, v := range values {
		assert.LessOrEqual(t, math.Abs(v), limit)
	}
}

func TestInitWFnJSON(t *testing.T) {
	tests := []Config{
		LecunUConfig{Gain: 1},
		GlorotUConfig{Gain: 1},
		ConstantConfig{Value: 0.5},
		UniformConfig{Low: -1, High: 1},
		ZeroesConfig{},
	}

	for _, config := range tests {
		t.Run(string(config.Type()), func(t *testing.T) {
			init, err := newInitWFn(config)
			require.NoError(t, err)

			data, err := json.Marshal(init)
			require.NoError(t, err)

			var decoded InitWFn
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, config.Type(), decoded.Type)
			assert.Equal(t, config, decoded.Config)
			assert.NotNil(t, decoded.InitWFn())
		})
	}
}

func TestInitWFnJSONUnknownType(t *testing.T) {
	var decoded InitWFn
	err := json.Unmarshal([]byte(`{"Type": "Orthogonal"}`), &decoded)
	assert.Error(t, err)
}

func TestConstantValues(t *testing.T) {
	init, err := NewConstant(0.25)
	require.NoError(t, err)

	values := init.InitWFn()(tensor.Float64, 2, 2)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, values)
}

func TestInitWFnJSONUnknownField(t *testing.T) {
	tests := map[string]string{
		"Config": `{"Type": "LecunU", "Config": {"Gainn": 3}}`,
		"Outer":  `{"Type": "LecunU", "Confg": {"Gain": 3}}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var decoded InitWFn
			assert.Error(t, json.Unmarshal([]byte(data), &decoded))
		})
	}
}
