package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network. Weights have shape (in, out) and the bias has shape (1, out)
// so that a batch of row-vector inputs x computes act(x·W + b).
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: %v", err)
	}

	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("fwd: %v", err)
		}
	}

	return f.act.Fwd(x)
}

// cloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	var newBias *G.Node
	if f.bias != nil {
		newBias = f.bias.CloneTo(g)
	}

	return &fcLayer{
		weights: f.weights.CloneTo(g),
		bias:    newBias,
		act:     f.act,
	}
}

// addfcLayers adds fully connected layers of the given sizes to the
// graph g. Weights are initialized with init and biases with zeroes.
func addfcLayers(g *G.ExprGraph, sizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int,
	prefix string) []*fcLayer {
	layers := make([]*fcLayer, len(sizes))

	in := features
	for i, out := range sizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("%vL%dW", prefix, i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, out),
				G.WithName(fmt.Sprintf("%vL%dB", prefix, i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers[i] = &fcLayer{weights: weights, bias: bias, act: activations[i]}
		in = out
	}

	return layers
}
