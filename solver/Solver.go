// Package solver implements functionality to wrap Gorgonia Solvers
// so that they can be JSON serialized into configuration files.
//
// Gorgonia solvers carry per-parameter state such as momentum, so a
// Solver must never be shared between two networks. Clone returns a
// new Solver with the same hyperparameters and fresh state.
package solver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if c == nil {
		return nil, fmt.Errorf("newSolver: nil configuration")
	}
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSolver: %v", err)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// Clone returns a new Solver with the same configuration as s and
// freshly initialized solver state
func (s *Solver) Clone() (*Solver, error) {
	return newSolver(s.Type, s.Config)
}

// Validate returns an error if the Solver's configuration is invalid
func (s *Solver) Validate() error {
	if s.Config == nil {
		return fmt.Errorf("validate: no solver configuration")
	}
	if !s.Config.ValidType(s.Type) {
		return fmt.Errorf("validate: invalid solver type %v for "+
			"configuration %T", s.Type, s.Config)
	}
	return s.Config.Validate()
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(Vanilla): reflect.TypeOf(VanillaConfig{}),
			string(Adam):    reflect.TypeOf(AdamConfig{}),
			string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
		})
	if err != nil {
		return err
	}

	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}
	for key := range m {
		if key != typeJsonField && key != valueJsonField {
			return nil, "", fmt.Errorf("unmarshalConfig: unknown field %q",
				key)
		}
	}

	var typeName string
	if err := json.Unmarshal(m[typeJsonField], &typeName); err != nil {
		return nil, "", fmt.Errorf("unmarshalConfig: could not read "+
			"solver type: %v", err)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: no such solver "+
			"type %v", typeName)
	}

	value := reflect.New(ty).Interface()
	if raw, ok := m[valueJsonField]; ok {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(value); err != nil {
			return nil, "", fmt.Errorf("unmarshalConfig: %v solver: %v",
				typeName, err)
		}
	}

	return reflect.ValueOf(value).Elem().Interface().(Config),
		Type(typeName), nil
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// Validate returns an error if the hyperparameters are invalid
	Validate() error
}

// validateStep checks the hyperparameters shared by all solvers
func validateStep(stepSize float64, batch int) error {
	if stepSize <= 0 {
		return fmt.Errorf("step size must be positive \n\twant(>0) "+
			"\n\thave(%v)", stepSize)
	}
	if batch < 1 {
		return fmt.Errorf("batch size must be positive \n\twant(>0) "+
			"\n\thave(%v)", batch)
	}
	return nil
}
