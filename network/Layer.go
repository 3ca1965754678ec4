package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// LayerConfig describes a single fully connected layer
type LayerConfig struct {
	Units      int
	Bias       bool
	Activation *Activation
}

// Validate returns an error if the layer cannot be built
func (l LayerConfig) Validate() error {
	if l.Units < 1 {
		return fmt.Errorf("layer must have at least one unit "+
			"\n\twant(>0) \n\thave(%v)", l.Units)
	}
	if l.Activation == nil {
		return fmt.Errorf("layer has no activation")
	}
	return nil
}

// Architecture describes a stack of fully connected hidden layers.
// Layer i of the Architecture is applied after layer i-1.
type Architecture []LayerConfig

// Validate returns an error if any layer of the Architecture is
// invalid
func (a Architecture) Validate() error {
	for i, layer := range a {
		if err := layer.Validate(); err != nil {
			return fmt.Errorf("validate: layer %v: %v", i, err)
		}
	}
	return nil
}

// AutoLayers returns an Architecture of numHidden layers. The first
// layer has firstSize units and each subsequent layer has half the
// units of the previous layer, with a minimum of one unit. All layers
// use a bias and the activation act.
func AutoLayers(numHidden, firstSize int, act *Activation) Architecture {
	layers := make(Architecture, numHidden)
	units := firstSize
	for i := range layers {
		layers[i] = LayerConfig{
			Units:      max(units, 1),
			Bias:       true,
			Activation: act,
		}
		units /= 2
	}
	return layers
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds the weights of a fully connected layer with inputs
// inputs to the graph g. Weights are initialized with init and biases
// with zeroes.
func newFCLayer(g *G.ExprGraph, inputs int, config LayerConfig,
	init G.InitWFn, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, config.Units),
		G.WithName(name+"W"),
		G.WithInit(init),
	)

	var bias *G.Node
	if config.Bias {
		bias = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, config.Units),
			G.WithName(name+"B"),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{
		weights: weights,
		bias:    bias,
		act:     config.Activation,
	}
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}

	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
		if err != nil {
			return nil, err
		}
	}

	return f.act.fwd(x)
}

// cloneTo clones an fcLayer to a new computational graph. The weights
// of the clone are copies of the weights of f.
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	var bias *G.Node
	if f.bias != nil {
		bias = f.bias.CloneTo(g)
	}

	return &fcLayer{
		weights: f.weights.CloneTo(g),
		bias:    bias,
		act:     f.act,
	}
}

// learnables returns the learnable nodes of the layer
func (f *fcLayer) learnables() G.Nodes {
	if f.bias == nil {
		return G.Nodes{f.weights}
	}
	return G.Nodes{f.weights, f.bias}
}

// stackFwd runs the forward pass of each layer in turn
func stackFwd(layers []*fcLayer, x *G.Node) (*G.Node, error) {
	var err error
	for i, l := range layers {
		if x, err = l.fwd(x); err != nil {
			return nil, fmt.Errorf("could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}
	return x, nil
}
