package noise

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Type describes the different noise processes that are available
type Type string

// Available noise process types
const (
	OU       Type = "OrnsteinUhlenbeck"
	Gaussian Type = "GaussianWhiteNoise"
)

// Params describes the hyperparameters of a noise process and can be
// used to create the Process it describes.
type Params interface {
	// Type returns the type of Process described
	Type() Type

	// Validate returns an error if the parameters cannot create a
	// Process with samples of length size
	Validate(size int) error

	// Create returns the Process described
	Create(size int, seed uint64) (Process, error)
}

// Config wraps Params so that noise processes can be JSON marshalled
// and unmarshalled into configuration files. Config is marshalled as
//
//	{"Type": "OrnsteinUhlenbeck", "Params": {...}}
type Config struct {
	Type
	Params
}

// NewConfig returns a new Config wrapping p
func NewConfig(p Params) Config {
	return Config{Type: p.Type(), Params: p}
}

// Create returns the Process described by the Config
func (c Config) Create(size int, seed uint64) (Process, error) {
	if c.Params == nil {
		return nil, fmt.Errorf("create: no noise parameters given")
	}
	return c.Params.Create(size, seed)
}

// Validate returns an error if the Config cannot create a Process with
// samples of length size
func (c Config) Validate(size int) error {
	if c.Params == nil {
		return fmt.Errorf("validate: no noise parameters given")
	}
	if c.Type != c.Params.Type() {
		return fmt.Errorf("validate: type %v does not match parameters "+
			"of type %v", c.Type, c.Params.Type())
	}
	return c.Params.Validate(size)
}

// UnmarshalJSON implements the json.Unmarshaler interface. Fields
// omitted from Params keep the defaults of the named noise type, and
// unknown fields are an error.
func (c *Config) UnmarshalJSON(data []byte) error {
	params, typeName, err := unmarshalParams(
		data,
		"Type",
		"Params",
		map[string]Params{
			string(OU):       NewDefaultOrnsteinUhlenbeck(),
			string(Gaussian): NewDefaultGaussianWhiteNoise(),
		})
	if err != nil {
		return err
	}

	c.Type = typeName
	c.Params = params

	return nil
}

// unmarshalParams uses reflection to unmarshal Params into their
// concrete type, starting from the registered defaults. Both the Params
// and their Type are returned.
func unmarshalParams(data []byte, typeJsonField, valueJsonField string,
	defaults map[string]Params) (Params, Type, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}
	for key := range m {
		if key != typeJsonField && key != valueJsonField {
			return nil, "", fmt.Errorf("unmarshalParams: unknown field %q",
				key)
		}
	}

	var typeName string
	if err := json.Unmarshal(m[typeJsonField], &typeName); err != nil {
		return nil, "", fmt.Errorf("unmarshalParams: could not read "+
			"noise type: %v", err)
	}

	def, found := defaults[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalParams: no such noise "+
			"type %v", typeName)
	}
	value := reflect.New(reflect.TypeOf(def))
	value.Elem().Set(reflect.ValueOf(def))

	if raw, ok := m[valueJsonField]; ok && string(raw) != "null" {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(value.Interface()); err != nil {
			return nil, "", fmt.Errorf("unmarshalParams: %v noise: %v",
				typeName, err)
		}
	}
	concreteValue := value.Elem().Interface().(Params)

	return concreteValue, Type(typeName), nil
}

// OrnsteinUhlenbeckParams describes an OrnsteinUhlenbeck process.
// SigmaMin is optional: if nil, σ is not annealed.
type OrnsteinUhlenbeckParams struct {
	Theta           float64
	Mu              float64
	Sigma           float64
	Dt              float64
	X0              []float64 `json:",omitempty"`
	SigmaMin        *float64  `json:",omitempty"`
	NStepsAnnealing int
}

// NewDefaultOrnsteinUhlenbeck returns the default OrnsteinUhlenbeck
// parameters: θ = 0.15, μ = 0, σ = 0.3, dt = 0.01, no annealing
func NewDefaultOrnsteinUhlenbeck() OrnsteinUhlenbeckParams {
	return OrnsteinUhlenbeckParams{
		Theta:           0.15,
		Mu:              0,
		Sigma:           0.3,
		Dt:              1e-2,
		NStepsAnnealing: 1000,
	}
}

// Type returns the type of Process described by the parameters
func (o OrnsteinUhlenbeckParams) Type() Type {
	return OU
}

// Validate checks whether the parameters can create a process with
// samples of length size
func (o OrnsteinUhlenbeckParams) Validate(size int) error {
	if size < 1 {
		return fmt.Errorf("size must be positive \n\twant(>0) \n\thave(%v)",
			size)
	}
	if o.X0 != nil && len(o.X0) != size {
		return fmt.Errorf("invalid x0 size \n\twant(%v) \n\thave(%v)",
			size, len(o.X0))
	}
	if o.Dt <= 0 {
		return fmt.Errorf("dt must be positive \n\twant(>0) \n\thave(%v)",
			o.Dt)
	}
	if o.SigmaMin != nil && *o.SigmaMin > o.Sigma {
		return fmt.Errorf("sigmaMin cannot exceed sigma \n\twant(<=%v)"+
			"\n\thave(%v)", o.Sigma, *o.SigmaMin)
	}
	if o.SigmaMin != nil && o.NStepsAnnealing < 1 {
		return fmt.Errorf("annealing steps must be positive \n\twant(>0)"+
			"\n\thave(%v)", o.NStepsAnnealing)
	}
	return nil
}

// Create returns the OrnsteinUhlenbeck process described
func (o OrnsteinUhlenbeckParams) Create(size int, seed uint64) (Process,
	error) {
	return NewOrnsteinUhlenbeck(o, size, seed)
}

// GaussianWhiteNoiseParams describes a GaussianWhiteNoise process.
// SigmaMin is optional: if nil, σ is not annealed.
type GaussianWhiteNoiseParams struct {
	Mu              float64
	Sigma           float64
	SigmaMin        *float64 `json:",omitempty"`
	NStepsAnnealing int
}

// NewDefaultGaussianWhiteNoise returns the default GaussianWhiteNoise
// parameters: μ = 0, σ = 0.3, no annealing
func NewDefaultGaussianWhiteNoise() GaussianWhiteNoiseParams {
	return GaussianWhiteNoiseParams{
		Mu:              0,
		Sigma:           0.3,
		NStepsAnnealing: 1000,
	}
}

// Type returns the type of Process described by the parameters
func (g GaussianWhiteNoiseParams) Type() Type {
	return Gaussian
}

// Validate checks whether the parameters can create a process with
// samples of length size
func (g GaussianWhiteNoiseParams) Validate(size int) error {
	if size < 1 {
		return fmt.Errorf("size must be positive \n\twant(>0) \n\thave(%v)",
			size)
	}
	if g.SigmaMin != nil && *g.SigmaMin > g.Sigma {
		return fmt.Errorf("sigmaMin cannot exceed sigma \n\twant(<=%v)"+
			"\n\thave(%v)", g.Sigma, *g.SigmaMin)
	}
	if g.SigmaMin != nil && g.NStepsAnnealing < 1 {
		return fmt.Errorf("annealing steps must be positive \n\twant(>0)"+
			"\n\thave(%v)", g.NStepsAnnealing)
	}
	return nil
}

// Create returns the GaussianWhiteNoise process described
func (g GaussianWhiteNoiseParams) Create(size int, seed uint64) (Process,
	error) {
	return NewGaussianWhiteNoise(g, size, seed)
}

// Float returns a pointer to v. It is useful for setting SigmaMin.
func Float(v float64) *float64 {
	return &v
}
