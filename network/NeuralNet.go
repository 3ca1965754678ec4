// Package network implements the function approximators of an
// actor-critic agent as Gorgonia computational graphs.
//
// Each NeuralNet owns its input nodes, learnable weights, and
// prediction node within a single graph. A NeuralNet does not own a
// VM; callers create a VM over Graph(), set the inputs with SetInput,
// run the VM, and then read Output.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet implements a neural network in a Gorgonia computational
// graph
type NeuralNet interface {
	// Graph returns the graph the network is built in
	Graph() *G.ExprGraph

	// CloneWithBatch returns a copy of the network with the same
	// weights in a new graph, taking inputs of the given batch size
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int

	// Features returns the total number of input features of a single
	// sample, summed over all input nodes
	Features() int

	// Outputs returns the number of outputs of a single sample
	Outputs() int

	// Inputs returns the input nodes of the network
	Inputs() G.Nodes

	// SetInput sets the values of the input nodes, one slice per input
	// node, each in row-major order
	SetInput(...[]float64) error

	Prediction() *G.Node

	// Output returns the value of the prediction node after the graph
	// has been run
	Output() G.Value

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Set copies the weights of another network of the same
	// architecture into this network
	Set(NeuralNet) error

	// Polyak sets the weights of this network to τ * source +
	// (1 - τ) * this
	Polyak(source NeuralNet, tau float64) error

	// Weights returns a copy of the weights of each learnable node
	Weights() [][]float64
	SetWeights([][]float64) error
}

// set copies the values of the source nodes into dest
func set(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("set: invalid number of learnables \n\twant(%v) "+
			"\n\thave(%v)", len(dest), len(source))
	}

	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			return fmt.Errorf("set: invalid shape for learnable %v "+
				"\n\twant(%v) \n\thave(%v)", i, dest[i].Shape(),
				source[i].Shape())
		}

		value, err := G.CloneValue(source[i].Value())
		if err != nil {
			return fmt.Errorf("set: could not clone learnable %v: %v", i,
				err)
		}
		if err := G.Let(dest[i], value); err != nil {
			return fmt.Errorf("set: %v", err)
		}
	}
	return nil
}

// polyak sets the values of dest to a Polyak average of its values and
// the values of source
func polyak(dest, source G.Nodes, tau float64) error {
	if tau < 0 || tau > 1 {
		return fmt.Errorf("polyak: τ must be in [0, 1] \n\twant(0 <= τ <= 1)"+
			" \n\thave(%v)", tau)
	}
	if len(dest) != len(source) {
		return fmt.Errorf("polyak: invalid number of learnables "+
			"\n\twant(%v) \n\thave(%v)", len(dest), len(source))
	}

	for i := range dest {
		destWeights, ok := dest[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("polyak: learnable %v is not a dense tensor", i)
		}
		sourceWeights, ok := source[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("polyak: source learnable %v is not a dense "+
				"tensor", i)
		}

		destWeights, err := destWeights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		newWeights, err := destWeights.Add(sourceWeights)
		if err != nil {
			return err
		}

		if err := G.Let(dest[i], newWeights); err != nil {
			return fmt.Errorf("polyak: %v", err)
		}
	}
	return nil
}

// weights returns a copy of the values of each node
func weights(nodes G.Nodes) [][]float64 {
	w := make([][]float64, len(nodes))
	for i, node := range nodes {
		data := node.Value().Data().([]float64)
		w[i] = make([]float64, len(data))
		copy(w[i], data)
	}
	return w
}

// setWeights sets the values of each node to a copy of w
func setWeights(nodes G.Nodes, w [][]float64) error {
	if len(nodes) != len(w) {
		return fmt.Errorf("setWeights: invalid number of learnables "+
			"\n\twant(%v) \n\thave(%v)", len(nodes), len(w))
	}

	for i, node := range nodes {
		if size := node.Shape().TotalSize(); size != len(w[i]) {
			return fmt.Errorf("setWeights: invalid size for learnable %v "+
				"\n\twant(%v) \n\thave(%v)", i, size, len(w[i]))
		}

		backing := make([]float64, len(w[i]))
		copy(backing, w[i])
		value := tensor.New(
			tensor.WithBacking(backing),
			tensor.WithShape(node.Shape()...),
		)
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("setWeights: %v", err)
		}
	}
	return nil
}

// model returns the learnable nodes as ValueGrads for a solver
func model(learnables G.Nodes) []G.ValueGrad {
	m := make([]G.ValueGrad, len(learnables))
	for i, node := range learnables {
		m[i] = node
	}
	return m
}

// setInput sets the value of an input node of a network
func setInput(node *G.Node, input []float64) error {
	if size := node.Shape().TotalSize(); len(input) != size {
		return fmt.Errorf("setInput: invalid number of inputs to %v "+
			"\n\twant(%v) \n\thave(%v)", node.Name(), size, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(node.Shape()...),
	)
	return G.Let(node, inputTensor)
}

// newInput adds a new input node of the given shape to g
func newInput(g *G.ExprGraph, batch, features int, name string) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName(name),
		G.WithInit(G.Zeroes()),
	)
}
