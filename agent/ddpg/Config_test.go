package ddpg

import (
	"strings"
	"testing"

	"github.com/samuelfneumann/goddpg/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, 1, c.TrainPerNNewExp)
	assert.Equal(t, 0.95, c.Gamma)
	assert.Equal(t, 16, c.BatchSize)
	assert.Equal(t, 5, c.NEpoch)
	require.Len(t, c.Hidden(), 1)
	assert.Equal(t, 4, c.Hidden()[0].Units)
	assert.Equal(t, "sigmoid", c.Hidden()[0].Activation.String())
	assert.True(t, c.OutputActivation.IsIdentity())
	assert.Equal(t, noise.OU, c.Noise.Type)
}

func TestConfigAutoArchitecture(t *testing.T) {
	c := DefaultConfig()
	c.AutoArchitecture = true
	require.NoError(t, c.Validate())

	units := make([]int, 0)
	for _, layer := range c.Hidden() {
		units = append(units, layer.Units)
	}
	assert.Equal(t, []int{256, 128, 64}, units)

	c.NumHiddenLayers = 0
	assert.Error(t, c.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"TrainPerNNewExp", func(c *Config) { c.TrainPerNNewExp = 0 }},
		{"NegativeGamma", func(c *Config) { c.Gamma = -0.1 }},
		{"BatchSize", func(c *Config) { c.BatchSize = 0 }},
		{"NEpoch", func(c *Config) { c.NEpoch = 0 }},
		{"NoHidden", func(c *Config) { c.HiddenLayers = nil }},
		{"HiddenUnits", func(c *Config) { c.HiddenLayers[0].Units = 0 }},
		{"NoOutput", func(c *Config) { c.OutputActivation = nil }},
		{"NoInit", func(c *Config) { c.InitWFn = nil }},
		{"ZeroTau", func(c *Config) { c.Tau = 0 }},
		{"LargeTau", func(c *Config) { c.Tau = 1.1 }},
		{"TargetInterval", func(c *Config) { c.TargetUpdateInterval = 0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := DefaultConfig()
			test.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	data := `{
		"Gamma": 0.99,
		"BatchSize": 32,
		"HiddenLayers": [
			{"Units": 64, "Bias": true, "Activation": "relu"},
			{"Units": 32, "Bias": true, "Activation": "relu"}
		],
		"OutputActivation": "tanh",
		"Noise": {
			"Type": "OrnsteinUhlenbeck",
			"Params": {
				"Theta": 0.2, "Mu": 0, "Sigma": 0.5, "Dt": 0.05,
				"SigmaMin": 0.1, "NStepsAnnealing": 500
			}
		}
	}`

	c, err := LoadConfig(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 0.99, c.Gamma)
	assert.Equal(t, 32, c.BatchSize)
	assert.Equal(t, 5, c.NEpoch, "omitted fields keep their defaults")
	require.Len(t, c.HiddenLayers, 2)
	assert.Equal(t, "relu", c.HiddenLayers[1].Activation.String())
	assert.Equal(t, "tanh", c.OutputActivation.String())

	params, ok := c.Noise.Params.(noise.OrnsteinUhlenbeckParams)
	require.True(t, ok)
	assert.Equal(t, 0.5, params.Sigma)
	require.NotNil(t, params.SigmaMin)
	assert.Equal(t, 0.1, *params.SigmaMin)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"UnknownField": `{"LearningRate": 0.1}`,
		"Invalid":      `{"Gamma": 2}`,
		"Malformed":    `{"Gamma": }`,
		"NoiseParam": `{"Noise": {"Type": "OrnsteinUhlenbeck",
			"Params": {"Sigma": 0.3, "sigma_minn": 0.05}}}`,
		"InitParam": `{"InitWFn": {"Type": "LecunU", "Config": {"Gainn": 3}}}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigPartialNoise(t *testing.T) {
	data := `{"Noise": {"Type": "OrnsteinUhlenbeck",
		"Params": {"SigmaMin": 0.05}}}`

	c, err := LoadConfig(strings.NewReader(data))
	require.NoError(t, err)

	params, ok := c.Noise.Params.(noise.OrnsteinUhlenbeckParams)
	require.True(t, ok)
	def := noise.NewDefaultOrnsteinUhlenbeck()
	assert.Equal(t, def.Theta, params.Theta)
	assert.Equal(t, def.Sigma, params.Sigma)
	assert.Equal(t, def.Dt, params.Dt)
	require.NotNil(t, params.SigmaMin)
	assert.Equal(t, 0.05, *params.SigmaMin)
}
