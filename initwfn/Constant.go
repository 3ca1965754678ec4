package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig configures initialization of all weights to 0. It is
// mostly useful for biases.
type ZeroesConfig struct{}

// NewZeroes returns a new zero weight initializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns Zeroes
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create returns the Gorgonia InitWFn described by the config
func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}

// ConstantConfig configures initialization of all weights to Value
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight initializer
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{Value: value})
}

// Type returns Constant
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create returns the Gorgonia InitWFn described by the config
func (c ConstantConfig) Create() G.InitWFn {
	return G.ValuesOf(c.Value)
}
