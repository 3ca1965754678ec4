package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samuelfneumann/goddpg/environment"
)

// ErrInvalidEnvSpec is returned when an EnvSpec is missing a key or
// has a non-positive value
var ErrInvalidEnvSpec = errors.New("invalid environment specification")

// EnvSpec describes the dimensions of an environment that an agent
// needs in order to build its models
type EnvSpec struct {
	StateDim      int `json:"state_dim"`
	ActionDim     int `json:"action_dim"`
	TimestepLimit int `json:"timestep_limit"`
}

// EnvSpecFrom returns the EnvSpec of an environment with continuous
// actions. Episodes are assumed to last at most timestepLimit steps.
func EnvSpecFrom(env environment.Environment,
	timestepLimit int) (EnvSpec, error) {
	action := env.ActionSpec()
	if action.Type != environment.Action {
		return EnvSpec{}, fmt.Errorf("envSpecFrom: %w: action spec "+
			"describes \n\twant(%v) \n\thave(%v)", ErrInvalidEnvSpec,
			environment.Action, action.Type)
	}

	spec := EnvSpec{
		StateDim:      env.ObservationSpec().Dim(),
		ActionDim:     action.Dim(),
		TimestepLimit: timestepLimit,
	}
	if err := spec.Validate(); err != nil {
		return EnvSpec{}, fmt.Errorf("envSpecFrom: %w", err)
	}
	return spec, nil
}

// Validate returns an error wrapping ErrInvalidEnvSpec if any
// dimension of the EnvSpec is not positive
func (e EnvSpec) Validate() error {
	if e.StateDim < 1 {
		return fmt.Errorf("validate: %w: state_dim must be positive "+
			"\n\twant(>0) \n\thave(%v)", ErrInvalidEnvSpec, e.StateDim)
	}
	if e.ActionDim < 1 {
		return fmt.Errorf("validate: %w: action_dim must be positive "+
			"\n\twant(>0) \n\thave(%v)", ErrInvalidEnvSpec, e.ActionDim)
	}
	if e.TimestepLimit < 1 {
		return fmt.Errorf("validate: %w: timestep_limit must be positive "+
			"\n\twant(>0) \n\thave(%v)", ErrInvalidEnvSpec, e.TimestepLimit)
	}
	return nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. Unknown keys
// and missing keys are both errors.
func (e *EnvSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		StateDim      *int `json:"state_dim"`
		ActionDim     *int `json:"action_dim"`
		TimestepLimit *int `json:"timestep_limit"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %w: %v", ErrInvalidEnvSpec, err)
	}

	missing := func(key string) error {
		return fmt.Errorf("unmarshalJSON: %w: missing key %q",
			ErrInvalidEnvSpec, key)
	}
	switch {
	case raw.StateDim == nil:
		return missing("state_dim")
	case raw.ActionDim == nil:
		return missing("action_dim")
	case raw.TimestepLimit == nil:
		return missing("timestep_limit")
	}

	*e = EnvSpec{
		StateDim:      *raw.StateDim,
		ActionDim:     *raw.ActionDim,
		TimestepLimit: *raw.TimestepLimit,
	}
	return nil
}
