// Package op provides extended Gorgonia graph operations.
package op

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// Clip clips the value of a node elementwise to [min, max]. Gradients
// flow only through elements that lie within the bounds.
func Clip(value *G.Node, min, max float64) (retVal *G.Node, err error) {
	if min > max {
		return nil, fmt.Errorf("clip: min %v > max %v", min, max)
	}

	// Construct clipping nodes
	var minNode, maxNode *G.Node
	switch value.Dtype() {
	case G.Float32:
		minNode = G.NewConstant(float32(min), G.WithName("clip_min"))
		maxNode = G.NewConstant(float32(max), G.WithName("clip_max"))
	case G.Float64:
		minNode = G.NewConstant(min, G.WithName("clip_min"))
		maxNode = G.NewConstant(max, G.WithName("clip_max"))
	default:
		return nil, fmt.Errorf("clip: unsupported dtype %v", value.Dtype())
	}

	// Elements below the minimum
	minMask, err := G.Lt(value, minNode, true)
	if err != nil {
		return nil, err
	}
	minVal, err := G.HadamardProd(minNode, minMask)
	if err != nil {
		return nil, err
	}

	// Elements within the bounds
	isMaskGte, err := G.Gte(value, minNode, true)
	if err != nil {
		return nil, err
	}
	isMaskLte, err := G.Lte(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	isMask, err := G.HadamardProd(isMaskGte, isMaskLte)
	if err != nil {
		return nil, err
	}
	isVal, err := G.HadamardProd(value, isMask)
	if err != nil {
		return nil, err
	}

	// Elements above the maximum
	maxMask, err := G.Gt(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	maxVal, err := G.HadamardProd(maxNode, maxMask)
	if err != nil {
		return nil, err
	}
	return G.ReduceAdd(G.Nodes{minVal, isVal, maxVal})
}

// GaussianLogPdf calculates the log density of actions under a diagonal
// Gaussian distribution with mean mean and log standard deviation
// logStd.
//
// All arguments should be matrices of the same size m x n. Rows denote
// samples in the batch and columns denote action dimensions, so that
// mean[i, j] and exp(logStd[i, j]) are the mean and standard deviation
// of the distribution of actions[i, j]. The returned node is a vector
// of length m holding the log density of each sample:
//
//	Σ_j -½((a - μ)/σ)² - log σ - ½log(2π)
func GaussianLogPdf(mean, logStd, actions *G.Node) (*G.Node, error) {
	graph := mean.Graph()
	if graph != logStd.Graph() || graph != actions.Graph() {
		return nil, fmt.Errorf("gaussianLogPdf: all nodes must share the " +
			"same graph")
	}
	if !mean.Shape().Eq(logStd.Shape()) || !mean.Shape().Eq(actions.Shape()) {
		return nil, fmt.Errorf("gaussianLogPdf: shapes of mean %v, log std "+
			"%v, and actions %v differ", mean.Shape(), logStd.Shape(),
			actions.Shape())
	}

	negativeHalf := G.NewConstant(-0.5)
	halfLog2Pi := G.NewConstant(0.5 * math.Log(2*math.Pi))

	std, err := G.Exp(logStd)
	if err != nil {
		return nil, fmt.Errorf("gaussianLogPdf: %v", err)
	}

	z, err := G.Sub(actions, mean)
	if err != nil {
		return nil, fmt.Errorf("gaussianLogPdf: %v", err)
	}
	z, err = G.HadamardDiv(z, std)
	if err != nil {
		return nil, fmt.Errorf("gaussianLogPdf: %v", err)
	}
	exponent, err := G.Square(z)
	if err != nil {
		return nil, fmt.Errorf("gaussianLogPdf: %v", err)
	}
	exponent, err = G.HadamardProd(negativeHalf, exponent)
	if err != nil {
		return nil, fmt.Errorf("gaussianLogPdf: %v", err)
	}

	logProb, err := G.Sub(exponent, logStd)
	if err != nil {
		return nil, fmt.Errorf("gaussianLogPdf: %v", err)
	}
	logProb, err = G.Sub(logProb, halfLog2Pi)
	if err != nil {
		return nil, fmt.Errorf("gaussianLogPdf: %v", err)
	}

	return G.Sum(logProb, 1)
}
