package initwfn

import (
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// LecunUConfig configures LeCun uniform initialization, which draws
// weights from U[-l, l] with
//
//	l = gain * √(3 / fanIn)
//
// The fan in of a weight matrix is the size of its first dimension.
type LecunUConfig struct {
	Gain float64
}

// NewLecunU returns a new LeCun uniform weight initializer
func NewLecunU(gain float64) (*InitWFn, error) {
	return newInitWFn(LecunUConfig{Gain: gain})
}

// Type returns LecunU
func (l LecunUConfig) Type() Type {
	return LecunU
}

// Create returns the Gorgonia InitWFn described by the config
func (l LecunUConfig) Create() G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		limit := l.Gain * math.Sqrt(3.0/float64(fanIn(s...)))
		return G.Uniform(-limit, limit)(dt, s...)
	}
}

// fanIn returns the number of inputs to a weight tensor of shape s
func fanIn(s ...int) int {
	if len(s) == 0 || s[0] < 1 {
		return 1
	}
	return s[0]
}

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// Type returns GlorotU
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the Gorgonia InitWFn described by the config
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// HeUConfig configures He uniform initialization
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

// Type returns HeU
func (h HeUConfig) Type() Type {
	return HeU
}

// Create returns the Gorgonia InitWFn described by the config
func (h HeUConfig) Create() G.InitWFn {
	return G.HeU(h.Gain)
}

// UniformConfig configures initialization from U[Low, High]
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	return newInitWFn(UniformConfig{Low: low, High: high})
}

// Type returns Uniform
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the Gorgonia InitWFn described by the config
func (u UniformConfig) Create() G.InitWFn {
	return G.Uniform(u.Low, u.High)
}
