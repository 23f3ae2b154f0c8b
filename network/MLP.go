// Package network implements feed forward neural networks as Gorgonia
// computational graphs
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet is a neural network embedded in a Gorgonia computational
// graph. The graph is run by a VM owned by the caller, after which the
// network's Output holds the value of its Prediction node.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
	Weights() [][]float64
	SetWeights([][]float64) error
}

// mlp implements a multi-layered perceptron
type mlp struct {
	g         *G.ExprGraph
	layers    []*fcLayer
	input     *G.Node
	numInputs int
	outputs   int
	batchSize int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output nodes. The graph parameter g is populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// linear layer with a bias unit is always added such that given any
// input, the network predicts outputs values. For index i,
// hiddenSizes[i] is the number of nodes in hidden layer i, biases[i] is
// true if hidden layer i contains a bias unit, and activations[i] is the
// activation function of hidden layer i. The parameter init determines
// the weight initialization scheme.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newMLP: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features (%v), batch (%v), and "+
			"outputs (%v) must be positive", features, batch, outputs)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Add the final linear layer
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	withBias := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	layers := addfcLayers(g, sizes, withBias, acts, init, features, "")

	net := &mlp{
		g:         g,
		layers:    layers,
		input:     input,
		numInputs: features,
		outputs:   outputs,
		batchSize: batch,
	}
	if err := net.fwd(); err != nil {
		return nil, fmt.Errorf("newMLP: could not compute forward pass: %v",
			err)
	}

	return net, nil
}

// Graph returns the computational graph of the mlp
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// Clone clones the mlp to a new computational graph. The clone has the
// same weights as m, but the weights are not shared.
func (m *mlp) Clone() (NeuralNet, error) {
	graph := G.NewGraph()

	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(m.input.Shape()...),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := make([]*fcLayer, len(m.layers))
	for i := range m.layers {
		layers[i] = m.layers[i].cloneTo(graph)
	}

	net := &mlp{
		g:         graph,
		layers:    layers,
		input:     input,
		numInputs: m.numInputs,
		outputs:   m.outputs,
		batchSize: m.batchSize,
	}
	if err := net.fwd(); err != nil {
		return nil, fmt.Errorf("clone: could not compute forward pass: %v",
			err)
	}

	return net, nil
}

// BatchSize returns the batch size of inputs to the network
func (m *mlp) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input vector
func (m *mlp) Features() int {
	return m.numInputs
}

// Outputs returns the number of outputs from the network
func (m *mlp) Outputs() int {
	return m.outputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (m *mlp) SetInput(input []float64) error {
	if len(input) != m.numInputs*m.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", m.numInputs*m.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(m.input.Shape()...),
	)
	return G.Let(m.input, inputTensor)
}

// Set sets the weights of the mlp to be equal to the weights of another
// network of the same architecture
func (m *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := m.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: source has %v learnables but destination "+
			"has %v", len(sourceNodes), len(nodes))
	}

	for i, dest := range nodes {
		value, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: learnable %v has no dense value", i)
		}
		if err := G.Let(dest, value.Clone().(*tensor.Dense)); err != nil {
			return fmt.Errorf("set: %v", err)
		}
	}
	return nil
}

// Weights returns a copy of the values of each learnable node in the
// order given by Learnables
func (m *mlp) Weights() [][]float64 {
	nodes := m.Learnables()
	weights := make([][]float64, len(nodes))
	for i, node := range nodes {
		data := node.Value().Data().([]float64)
		weights[i] = append([]float64(nil), data...)
	}
	return weights
}

// SetWeights sets the values of each learnable node, which must be
// given in the order returned by Weights
func (m *mlp) SetWeights(weights [][]float64) error {
	nodes := m.Learnables()
	if len(weights) != len(nodes) {
		return fmt.Errorf("setWeights: \n\twant(%v weight sets) "+
			"\n\thave(%v)", len(nodes), len(weights))
	}

	for i, node := range nodes {
		if len(weights[i]) != node.Shape().TotalSize() {
			return fmt.Errorf("setWeights: invalid size for learnable %v "+
				"\n\twant(%v) \n\thave(%v)", node.Name(),
				node.Shape().TotalSize(), len(weights[i]))
		}
		backing := append([]float64(nil), weights[i]...)
		t := tensor.New(tensor.WithShape(node.Shape()...),
			tensor.WithBacking(backing))
		if err := G.Let(node, t); err != nil {
			return fmt.Errorf("setWeights: %v", err)
		}
	}
	return nil
}

// Learnables returns the learnable nodes in the mlp
func (m *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if m.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(m.layers))
		for _, layer := range m.layers {
			learnables = append(learnables, layer.weights)
			if layer.bias != nil {
				learnables = append(learnables, layer.bias)
			}
		}
		m.learnables = G.Nodes(learnables)
	}
	return m.learnables
}

// Model returns the learnables nodes with their gradients.
func (m *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if m.model == nil {
		m.model = G.NodesToValueGrads(m.Learnables())
	}
	return m.model
}

// fwd performs the forward pass of the mlp on its input node
func (m *mlp) fwd() error {
	pred := m.input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)

	return nil
}

// Output returns the output of the mlp after its graph has been run
func (m *mlp) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the mlp
func (m *mlp) Prediction() *G.Node {
	return m.prediction
}
