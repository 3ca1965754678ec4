package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// critic implements an action-value function approximator with two
// input branches. States and actions each pass through their own
// fully connected layer, the two results are concatenated along the
// feature dimension, and the concatenation is passed through the
// remaining layers to a single output.
type critic struct {
	g           *G.ExprGraph
	state       *G.Node
	action      *G.Node
	stateLayer  *fcLayer
	actionLayer *fcLayer
	layers      []*fcLayer
	stateDim    int
	actionDim   int
	batchSize   int

	learnables G.Nodes

	prediction *G.Node
	predVal    G.Value
}

// NewCritic creates a new critic network in the graph g, mapping
// batches of (state, action) pairs to action values.
//
// The first layer of hidden is duplicated into a state branch and an
// action branch. The remaining layers of hidden follow the
// concatenation of the two branches, and a final layer with a single
// unit, a bias, and the output activation produces the action value.
// Weights are initialized with init.
func NewCritic(g *G.ExprGraph, stateDim, actionDim, batch int,
	hidden Architecture, output *Activation,
	init G.InitWFn) (NeuralNet, error) {
	if stateDim < 1 || actionDim < 1 || batch < 1 {
		return nil, fmt.Errorf("newCritic: dimensions must be positive "+
			"\n\twant(>0) \n\thave(state: %v, action: %v, batch: %v)",
			stateDim, actionDim, batch)
	}
	if len(hidden) < 1 {
		return nil, fmt.Errorf("newCritic: at least one hidden layer is " +
			"needed for the state and action branches")
	}
	if output == nil {
		return nil, fmt.Errorf("newCritic: no output activation")
	}
	if err := hidden.Validate(); err != nil {
		return nil, fmt.Errorf("newCritic: %v", err)
	}

	branch := hidden[0]
	stateLayer := newFCLayer(g, stateDim, branch, init, "criticState")
	actionLayer := newFCLayer(g, actionDim, branch, init, "criticAction")

	layerConfigs := make(Architecture, len(hidden)-1, len(hidden))
	copy(layerConfigs, hidden[1:])
	layerConfigs = append(layerConfigs, LayerConfig{
		Units:      1,
		Bias:       true,
		Activation: output,
	})

	layers := make([]*fcLayer, len(layerConfigs))
	inputs := 2 * branch.Units
	for i, config := range layerConfigs {
		name := fmt.Sprintf("critic%d", i)
		layers[i] = newFCLayer(g, inputs, config, init, name)
		inputs = config.Units
	}

	state := newInput(g, batch, stateDim, "criticState")
	action := newInput(g, batch, actionDim, "criticAction")

	net, err := newCriticFromLayers(g, state, action, stateLayer,
		actionLayer, layers)
	if err != nil {
		return nil, fmt.Errorf("newCritic: %v", err)
	}
	return net, nil
}

// newCriticFromLayers returns a critic which uses the given layers on
// the state and action nodes
func newCriticFromLayers(g *G.ExprGraph, state, action *G.Node,
	stateLayer, actionLayer *fcLayer, layers []*fcLayer) (*critic, error) {
	if !state.IsMatrix() || !action.IsMatrix() {
		return nil, fmt.Errorf("newCriticFromLayers: inputs must be " +
			"matrices")
	}
	if state.Shape()[0] != action.Shape()[0] {
		return nil, fmt.Errorf("newCriticFromLayers: state and action "+
			"batch sizes differ \n\twant(%v) \n\thave(%v)",
			state.Shape()[0], action.Shape()[0])
	}

	net := &critic{
		g:           g,
		state:       state,
		action:      action,
		stateLayer:  stateLayer,
		actionLayer: actionLayer,
		layers:      layers,
		stateDim:    state.Shape()[1],
		actionDim:   action.Shape()[1],
		batchSize:   state.Shape()[0],
	}

	stateBranch, err := stateLayer.fwd(state)
	if err != nil {
		return nil, fmt.Errorf("newCriticFromLayers: state branch: %v", err)
	}
	actionBranch, err := actionLayer.fwd(action)
	if err != nil {
		return nil, fmt.Errorf("newCriticFromLayers: action branch: %v",
			err)
	}

	merged, err := G.Concat(1, stateBranch, actionBranch)
	if err != nil {
		return nil, fmt.Errorf("newCriticFromLayers: could not merge "+
			"branches: %v", err)
	}

	pred, err := stackFwd(layers, merged)
	if err != nil {
		return nil, fmt.Errorf("newCriticFromLayers: %v", err)
	}
	net.prediction = pred
	G.Read(net.prediction, &net.predVal)

	net.learnables = append(net.learnables, stateLayer.learnables()...)
	net.learnables = append(net.learnables, actionLayer.learnables()...)
	for _, l := range layers {
		net.learnables = append(net.learnables, l.learnables()...)
	}

	return net, nil
}

// CriticOn copies the critic src into the graph of the state and action
// nodes, using state and action as the critic's inputs. The copy has
// its own weights, initialized to the weights of src, so that the
// action value of an action computed elsewhere in the graph can be
// differentiated with respect to that action.
func CriticOn(src NeuralNet, state, action *G.Node) (NeuralNet, error) {
	c, ok := src.(*critic)
	if !ok {
		return nil, fmt.Errorf("criticOn: source is not a critic (%T)", src)
	}
	if state.Graph() != action.Graph() {
		return nil, fmt.Errorf("criticOn: state and action are in " +
			"different graphs")
	}
	if state.Shape()[1] != c.stateDim || action.Shape()[1] != c.actionDim {
		return nil, fmt.Errorf("criticOn: invalid input features "+
			"\n\twant(state: %v, action: %v) \n\thave(state: %v, "+
			"action: %v)", c.stateDim, c.actionDim, state.Shape()[1],
			action.Shape()[1])
	}

	net, err := c.cloneTo(state.Graph(), state, action)
	if err != nil {
		return nil, fmt.Errorf("criticOn: %v", err)
	}
	return net, nil
}

// cloneTo clones the critic into the graph g using the given input
// nodes
func (c *critic) cloneTo(g *G.ExprGraph, state,
	action *G.Node) (*critic, error) {
	layers := make([]*fcLayer, len(c.layers))
	for i := range c.layers {
		layers[i] = c.layers[i].cloneTo(g)
	}

	return newCriticFromLayers(g, state, action, c.stateLayer.cloneTo(g),
		c.actionLayer.cloneTo(g), layers)
}

// Graph returns the computational graph of the critic
func (c *critic) Graph() *G.ExprGraph {
	return c.g
}

// CloneWithBatch clones the critic into a new graph with a new input
// batch size
func (c *critic) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("cloneWithBatch: batch size must be "+
			"positive \n\twant(>0) \n\thave(%v)", batchSize)
	}

	g := G.NewGraph()
	state := newInput(g, batchSize, c.stateDim, c.state.Name())
	action := newInput(g, batchSize, c.actionDim, c.action.Name())

	net, err := c.cloneTo(g, state, action)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return net, nil
}

// BatchSize returns the batch size of inputs to the critic
func (c *critic) BatchSize() int {
	return c.batchSize
}

// Features returns the number of state features plus the number of
// action dimensions
func (c *critic) Features() int {
	return c.stateDim + c.actionDim
}

// Outputs returns 1, the critic predicts a single action value
func (c *critic) Outputs() int {
	return 1
}

// Inputs returns the state and action input nodes, in that order
func (c *critic) Inputs() G.Nodes {
	return G.Nodes{c.state, c.action}
}

// SetInput sets the batch of states and actions to run the critic on
func (c *critic) SetInput(inputs ...[]float64) error {
	if len(inputs) != 2 {
		return fmt.Errorf("setInput: critic takes states and actions "+
			"\n\twant(2) \n\thave(%v)", len(inputs))
	}
	if err := setInput(c.state, inputs[0]); err != nil {
		return err
	}
	return setInput(c.action, inputs[1])
}

// Prediction returns the node of the computational graph that stores
// the action values predicted by the critic
func (c *critic) Prediction() *G.Node {
	return c.prediction
}

// Output returns the action values predicted on the last run of the
// graph
func (c *critic) Output() G.Value {
	return c.predVal
}

// Learnables returns the learnable nodes of the critic
func (c *critic) Learnables() G.Nodes {
	return c.learnables
}

// Model returns the learnable nodes with their gradients
func (c *critic) Model() []G.ValueGrad {
	return model(c.learnables)
}

// Set sets the weights of the critic to be equal to the weights of
// source
func (c *critic) Set(source NeuralNet) error {
	return set(c.Learnables(), source.Learnables())
}

// Polyak sets the weights of the critic to a Polyak average of its
// weights and the weights of source
func (c *critic) Polyak(source NeuralNet, tau float64) error {
	return polyak(c.Learnables(), source.Learnables(), tau)
}

// Weights returns a copy of the weights of the critic
func (c *critic) Weights() [][]float64 {
	return weights(c.learnables)
}

// SetWeights sets the weights of the critic
func (c *critic) SetWeights(w [][]float64) error {
	return setWeights(c.learnables, w)
}
