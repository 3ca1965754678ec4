package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// actor implements a multi-layered perceptron mapping states to
// actions
type actor struct {
	g         *G.ExprGraph
	input     *G.Node
	layers    []*fcLayer
	numInputs int
	numOutput int
	batchSize int

	learnables G.Nodes

	prediction *G.Node
	predVal    G.Value
}

// NewActor creates a new actor network in the graph g, mapping batches
// of states with stateDim features to actions with actionDim
// dimensions.
//
// The network has len(hidden) + 1 layers. Layer i < len(hidden) is
// described by hidden[i]. The final layer has actionDim units, a bias,
// and the output activation. Weights are initialized with init.
func NewActor(g *G.ExprGraph, stateDim, actionDim, batch int,
	hidden Architecture, output *Activation,
	init G.InitWFn) (NeuralNet, error) {
	if stateDim < 1 || actionDim < 1 || batch < 1 {
		return nil, fmt.Errorf("newActor: dimensions must be positive "+
			"\n\twant(>0) \n\thave(state: %v, action: %v, batch: %v)",
			stateDim, actionDim, batch)
	}
	if output == nil {
		return nil, fmt.Errorf("newActor: no output activation")
	}
	if err := hidden.Validate(); err != nil {
		return nil, fmt.Errorf("newActor: %v", err)
	}

	layerConfigs := make(Architecture, len(hidden), len(hidden)+1)
	copy(layerConfigs, hidden)
	layerConfigs = append(layerConfigs, LayerConfig{
		Units:      actionDim,
		Bias:       true,
		Activation: output,
	})

	layers := make([]*fcLayer, len(layerConfigs))
	inputs := stateDim
	for i, config := range layerConfigs {
		name := fmt.Sprintf("actor%d", i)
		layers[i] = newFCLayer(g, inputs, config, init, name)
		inputs = config.Units
	}

	input := newInput(g, batch, stateDim, "actorState")
	net, err := newActorFromLayers(g, input, layers, actionDim)
	if err != nil {
		return nil, fmt.Errorf("newActor: %v", err)
	}
	return net, nil
}

// newActorFromLayers returns an actor which uses the given layers on the
// input node
func newActorFromLayers(g *G.ExprGraph, input *G.Node, layers []*fcLayer,
	actionDim int) (*actor, error) {
	if !input.IsMatrix() {
		return nil, fmt.Errorf("newActorFromLayers: input must be a matrix")
	}

	net := &actor{
		g:         g,
		input:     input,
		layers:    layers,
		numInputs: input.Shape()[1],
		numOutput: actionDim,
		batchSize: input.Shape()[0],
	}

	pred, err := stackFwd(layers, input)
	if err != nil {
		return nil, fmt.Errorf("newActorFromLayers: %v", err)
	}
	net.prediction = pred
	G.Read(net.prediction, &net.predVal)

	for _, l := range layers {
		net.learnables = append(net.learnables, l.learnables()...)
	}

	return net, nil
}

// Graph returns the computational graph of the actor
func (a *actor) Graph() *G.ExprGraph {
	return a.g
}

// CloneWithBatch clones the actor into a new graph with a new input
// batch size
func (a *actor) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("cloneWithBatch: batch size must be "+
			"positive \n\twant(>0) \n\thave(%v)", batchSize)
	}

	g := G.NewGraph()
	layers := make([]*fcLayer, len(a.layers))
	for i := range a.layers {
		layers[i] = a.layers[i].cloneTo(g)
	}

	input := newInput(g, batchSize, a.numInputs, a.input.Name())
	net, err := newActorFromLayers(g, input, layers, a.numOutput)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return net, nil
}

// BatchSize returns the batch size of inputs to the actor
func (a *actor) BatchSize() int {
	return a.batchSize
}

// Features returns the number of features in a single state
func (a *actor) Features() int {
	return a.numInputs
}

// Outputs returns the dimension of actions
func (a *actor) Outputs() int {
	return a.numOutput
}

// Inputs returns the state input node
func (a *actor) Inputs() G.Nodes {
	return G.Nodes{a.input}
}

// SetInput sets the batch of states to run the actor on
func (a *actor) SetInput(inputs ...[]float64) error {
	if len(inputs) != 1 {
		return fmt.Errorf("setInput: actor has a single input node "+
			"\n\twant(1) \n\thave(%v)", len(inputs))
	}
	return setInput(a.input, inputs[0])
}

// Prediction returns the node of the computational graph that stores
// the actions predicted by the actor
func (a *actor) Prediction() *G.Node {
	return a.prediction
}

// Output returns the actions predicted on the last run of the graph
func (a *actor) Output() G.Value {
	return a.predVal
}

// Learnables returns the learnable nodes of the actor
func (a *actor) Learnables() G.Nodes {
	return a.learnables
}

// Model returns the learnable nodes with their gradients
func (a *actor) Model() []G.ValueGrad {
	return model(a.learnables)
}

// Set sets the weights of the actor to be equal to the weights of
// source
func (a *actor) Set(source NeuralNet) error {
	return set(a.Learnables(), source.Learnables())
}

// Polyak sets the weights of the actor to a Polyak average of its
// weights and the weights of source
func (a *actor) Polyak(source NeuralNet, tau float64) error {
	return polyak(a.Learnables(), source.Learnables(), tau)
}

// Weights returns a copy of the weights of the actor
func (a *actor) Weights() [][]float64 {
	return weights(a.learnables)
}

// SetWeights sets the weights of the actor
func (a *actor) SetWeights(w [][]float64) error {
	return setWeights(a.learnables, w)
}
