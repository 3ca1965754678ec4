package ddpg

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
)

// Config implements a configuration of a DDPG agent. Config is a
// closed record: decoding a Config with LoadConfig fails on any key
// that is not a field of Config.
type Config struct {
	// Train every TrainPerNNewExp steps, see DDPG.ToTrain
	TrainPerNNewExp int

	Gamma     float64 // Discount factor
	BatchSize int     // Number of transitions per epoch
	NEpoch    int     // Epochs per call to DDPG.Train

	// HiddenLayers describes the hidden layers of the actor and critic.
	// The first layer is duplicated into the state and action branches
	// of the critic.
	HiddenLayers     network.Architecture
	OutputActivation *network.Activation

	// If AutoArchitecture is set, HiddenLayers is ignored and
	// NumHiddenLayers layers with HiddenActivation are used instead.
	// The first layer has SizeFirstHiddenLayer units and each following
	// layer has half as many units as the layer before it.
	AutoArchitecture     bool
	NumHiddenLayers      int
	SizeFirstHiddenLayer int
	HiddenActivation     *network.Activation

	InitWFn *initwfn.InitWFn // Weight initializer

	// Exploration noise, sampled once per selected action
	Noise noise.Config

	// Target networks are updated every TargetUpdateInterval gradient
	// steps. If Tau == 1 the weights of the live networks are copied to
	// the target networks, otherwise the target networks are updated
	// with Polyak averaging.
	Tau                  float64
	TargetUpdateInterval int

	// If set, the noise process is reset at the end of each episode
	ResetNoiseOnDone bool
}

// DefaultConfig returns the default configuration of a DDPG agent
func DefaultConfig() Config {
	init, err := initwfn.NewLecunU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}

	return Config{
		TrainPerNNewExp: 1,
		Gamma:           0.95,
		BatchSize:       16,
		NEpoch:          5,
		HiddenLayers: network.Architecture{
			{Units: 4, Bias: true, Activation: network.Sigmoid()},
		},
		OutputActivation: network.Identity(),

		AutoArchitecture:     false,
		NumHiddenLayers:      3,
		SizeFirstHiddenLayer: 256,
		HiddenActivation:     network.Sigmoid(),

		InitWFn: init,
		Noise:   noise.NewConfig(noise.NewDefaultOrnsteinUhlenbeck()),

		Tau:                  0.001,
		TargetUpdateInterval: 1,
		ResetNoiseOnDone:     false,
	}
}

// LoadConfig decodes a JSON configuration from r over the default
// configuration, so that omitted fields keep their default values.
// Fields omitted from Noise.Params take the defaults of the named noise
// type. Unknown fields are an error at every level.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}
	return c, nil
}

// Hidden returns the hidden layers described by the Config
func (c Config) Hidden() network.Architecture {
	if c.AutoArchitecture {
		return network.AutoLayers(c.NumHiddenLayers, c.SizeFirstHiddenLayer,
			c.HiddenActivation)
	}
	return c.HiddenLayers
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent. The noise process is validated when the agent is
// created, since its validity depends on the action dimension.
func (c Config) Validate() error {
	if c.TrainPerNNewExp < 1 {
		return fmt.Errorf("validate: must train at positive step "+
			"intervals \n\twant(>0) \n\thave(%v)", c.TrainPerNNewExp)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: invalid discount \n\twant(0 <= γ <= 1)"+
			" \n\thave(%v)", c.Gamma)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.BatchSize)
	}

	if c.NEpoch < 1 {
		return fmt.Errorf("validate: number of epochs must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.NEpoch)
	}

	if c.AutoArchitecture {
		if c.NumHiddenLayers < 1 || c.SizeFirstHiddenLayer < 1 {
			return fmt.Errorf("validate: automatic architecture needs "+
				"at least one layer with at least one unit \n\twant(>0) "+
				"\n\thave(layers: %v, units: %v)", c.NumHiddenLayers,
				c.SizeFirstHiddenLayer)
		}
	}

	hidden := c.Hidden()
	if len(hidden) < 1 {
		return fmt.Errorf("validate: at least one hidden layer is needed")
	}
	if err := hidden.Validate(); err != nil {
		return fmt.Errorf("validate: hidden layers: %v", err)
	}

	if c.OutputActivation == nil {
		return fmt.Errorf("validate: no output activation")
	}

	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer")
	}

	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("validate: invalid Polyak averaging constant "+
			"\n\twant(0 < τ <= 1) \n\thave(%v)", c.Tau)
	}

	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("validate: target networks must be updated at "+
			"positive step intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdateInterval)
	}

	return nil
}
