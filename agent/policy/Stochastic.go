// Package policy implements stochastic continuous-action policies
package policy

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/expertgen/network"
	"github.com/samuelfneumann/expertgen/utils/floatutils"
)

// Bounds on the log standard deviation of the policy
const (
	LogStdMin float64 = -20.0
	LogStdMax float64 = 2.0
)

// MeanInitScale scales the initial weights of the mean head
const MeanInitScale float64 = 0.1

// ClampLogStd bounds a raw log standard deviation to
// [LogStdMin, LogStdMax]. NaN is mapped to LogStdMin so that the
// exponentiated standard deviation is always within its bounds.
func ClampLogStd(logStd float64) float64 {
	if math.IsNaN(logStd) {
		return LogStdMin
	}
	return floatutils.Clip(logStd, LogStdMin, LogStdMax)
}

// Stochastic implements a diagonal Gaussian policy whose mean and
// standard deviation are computed by a multi-layered perceptron.
//
// Observations are first passed through a feature extractor consisting
// of len(hidden) fully connected layers, each followed by the policy's
// activation function. The mean of the policy is a linear function of
// the extracted features. The log standard deviation is either a
// learned vector which is the same for all observations
// (state-independent) or a second linear function of the features
// (state-dependent). In both cases, the log standard deviation is
// clamped to [LogStdMin, LogStdMax] before exponentiation.
//
// Parameters are stored as row-major matrices: layer weights have shape
// (in, out) and biases have shape (1, out), so that a row vector of
// inputs x is mapped to x·W + b. Forward is a pure function of the
// parameters and can be called concurrently with itself.
type Stochastic struct {
	features            int
	actions             int
	hidden              []int
	act                 *network.Activation
	stateIndependentStd bool

	// hiddenW[i] and hiddenB[i] are the weights and bias of hidden
	// layer i
	hiddenW []*mat.Dense
	hiddenB []*mat.Dense

	meanW *mat.Dense
	meanB *mat.Dense

	// logStd is used for state-independent standard deviations.
	// logStdW and logStdB are used for state-dependent standard
	// deviations.
	logStd  *mat.Dense
	logStdW *mat.Dense
	logStdB *mat.Dense
}

// NewStochastic returns a new Stochastic policy for observations with
// features components and actions with actions components. Weights and
// biases are drawn uniformly from ±1/sqrt(fan_in) using a source seeded
// with seed. The weights of the mean head are then scaled by
// MeanInitScale and its bias is zeroed. The state-independent log
// standard deviation is initialized to zero.
func NewStochastic(features, actions int, hidden []int,
	act *network.Activation, stateIndependentStd bool,
	seed uint64) (*Stochastic, error) {
	if features < 1 || actions < 1 {
		return nil, fmt.Errorf("newStochastic: features (%v) and actions "+
			"(%v) must be positive", features, actions)
	}
	for i, h := range hidden {
		if h < 1 {
			return nil, fmt.Errorf("newStochastic: hidden layer %v has "+
				"non-positive size %v", i, h)
		}
	}
	if act == nil {
		act = network.TanH()
	}

	source := rand.NewSource(seed)
	p := &Stochastic{
		features:            features,
		actions:             actions,
		hidden:              append([]int(nil), hidden...),
		act:                 act,
		stateIndependentStd: stateIndependentStd,
	}

	in := features
	for _, out := range hidden {
		w, b := fanInLayer(in, out, source)
		p.hiddenW = append(p.hiddenW, w)
		p.hiddenB = append(p.hiddenB, b)
		in = out
	}

	p.meanW, p.meanB = fanInLayer(in, actions, source)
	p.meanW.Scale(MeanInitScale, p.meanW)
	p.meanB.Zero()

	if stateIndependentStd {
		p.logStd = mat.NewDense(1, actions, nil)
	} else {
		p.logStdW, p.logStdB = fanInLayer(in, actions, source)
	}

	return p, nil
}

// fanInLayer returns the weights and bias of a fully connected layer,
// drawn uniformly from ±1/sqrt(in)
func fanInLayer(in, out int, source rand.Source) (*mat.Dense, *mat.Dense) {
	bound := 1.0 / math.Sqrt(float64(in))
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: source}

	weights := make([]float64, in*out)
	for i := range weights {
		weights[i] = dist.Rand()
	}
	bias := make([]float64, out)
	for i := range bias {
		bias[i] = dist.Rand()
	}

	return mat.NewDense(in, out, weights), mat.NewDense(1, out, bias)
}

// Features returns the number of observation features the policy
// accepts
func (p *Stochastic) Features() int {
	return p.features
}

// Actions returns the dimensionality of actions
func (p *Stochastic) Actions() int {
	return p.actions
}

// Hidden returns the sizes of the hidden layers
func (p *Stochastic) Hidden() []int {
	return append([]int(nil), p.hidden...)
}

// Activation returns the activation function of the hidden layers
func (p *Stochastic) Activation() *network.Activation {
	return p.act
}

// StateIndependentStd returns whether the standard deviation is the
// same for every observation
func (p *Stochastic) StateIndependentStd() bool {
	return p.stateIndependentStd
}

// Forward returns the mean and standard deviation of the policy in
// the state with observation obs. Every standard deviation component
// lies in [exp(LogStdMin), exp(LogStdMax)].
func (p *Stochastic) Forward(obs mat.Vector) (mean, std *mat.VecDense,
	err error) {
	if obs.Len() != p.features {
		return nil, nil, fmt.Errorf("forward: invalid observation size "+
			"\n\twant(%v) \n\thave(%v)", p.features, obs.Len())
	}

	features := mat.NewDense(1, p.features, nil)
	for i := 0; i < p.features; i++ {
		features.Set(0, i, obs.AtVec(i))
	}
	for i := range p.hiddenW {
		features = linear(features, p.hiddenW[i], p.hiddenB[i])
		features.Apply(func(_, _ int, v float64) float64 {
			return p.act.Apply(v)
		}, features)
	}

	meanRow := linear(features, p.meanW, p.meanB)

	var logStdRow *mat.Dense
	if p.stateIndependentStd {
		logStdRow = p.logStd
	} else {
		logStdRow = linear(features, p.logStdW, p.logStdB)
	}

	mean = mat.NewVecDense(p.actions, nil)
	std = mat.NewVecDense(p.actions, nil)
	for i := 0; i < p.actions; i++ {
		mean.SetVec(i, meanRow.At(0, i))
		std.SetVec(i, math.Exp(ClampLogStd(logStdRow.At(0, i))))
	}

	return mean, std, nil
}

// linear returns x·w + b for a row vector x
func linear(x, w, b *mat.Dense) *mat.Dense {
	_, out := w.Dims()
	y := mat.NewDense(1, out, nil)
	y.Mul(x, w)
	y.Add(y, b)
	return y
}

// Parameters returns the parameters of the policy in a fixed order:
// the weights and bias of each hidden layer, the weights and bias of
// the mean head, and then either the state-independent log standard
// deviation or the weights and bias of the log standard deviation head.
//
// The returned matrices are the policy's own; use SetParameters to
// change them.
func (p *Stochastic) Parameters() []*mat.Dense {
	params := make([]*mat.Dense, 0, 2*len(p.hiddenW)+4)
	for i := range p.hiddenW {
		params = append(params, p.hiddenW[i], p.hiddenB[i])
	}
	params = append(params, p.meanW, p.meanB)

	if p.stateIndependentStd {
		params = append(params, p.logStd)
	} else {
		params = append(params, p.logStdW, p.logStdB)
	}
	return params
}

// SetParameters copies the values of params into the policy's
// parameters. The params must be given in the order and with the
// shapes returned by Parameters.
func (p *Stochastic) SetParameters(params []*mat.Dense) error {
	dest := p.Parameters()
	if len(params) != len(dest) {
		return fmt.Errorf("setParameters: \n\twant(%v parameters) "+
			"\n\thave(%v)", len(dest), len(params))
	}

	for i := range dest {
		r, c := dest[i].Dims()
		pr, pc := params[i].Dims()
		if r != pr || c != pc {
			return fmt.Errorf("setParameters: parameter %v has shape "+
				"(%v, %v) but want (%v, %v)", i, pr, pc, r, c)
		}
	}
	for i := range dest {
		dest[i].Copy(params[i])
	}
	return nil
}

// Clone returns a deep copy of the policy
func (p *Stochastic) Clone() *Stochastic {
	clone := *p
	clone.hidden = append([]int(nil), p.hidden...)
	clone.hiddenW = cloneAll(p.hiddenW)
	clone.hiddenB = cloneAll(p.hiddenB)
	clone.meanW = mat.DenseCopyOf(p.meanW)
	clone.meanB = mat.DenseCopyOf(p.meanB)
	if p.stateIndependentStd {
		clone.logStd = mat.DenseCopyOf(p.logStd)
	} else {
		clone.logStdW = mat.DenseCopyOf(p.logStdW)
		clone.logStdB = mat.DenseCopyOf(p.logStdB)
	}
	return &clone
}

// cloneAll deep copies a slice of matrices
func cloneAll(ms []*mat.Dense) []*mat.Dense {
	if ms == nil {
		return nil
	}
	out := make([]*mat.Dense, len(ms))
	for i := range ms {
		out[i] = mat.DenseCopyOf(ms[i])
	}
	return out
}

// GobEncode implements the gob.GobEncoder interface
func (p *Stochastic) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(p.features); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode features: %v",
			err)
	}
	if err := enc.Encode(p.actions); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode actions: %v",
			err)
	}
	if err := enc.Encode(p.hidden); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode hidden "+
			"sizes: %v", err)
	}
	if err := enc.Encode(p.act); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode activation: %v",
			err)
	}
	if err := enc.Encode(p.stateIndependentStd); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode std type: %v",
			err)
	}

	for i, param := range p.Parameters() {
		data, err := param.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("gobEncode: could not marshal "+
				"parameter %v: %v", i, err)
		}
		if err := enc.Encode(data); err != nil {
			return nil, fmt.Errorf("gobEncode: could not encode "+
				"parameter %v: %v", i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (p *Stochastic) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var features, actions int
	if err := dec.Decode(&features); err != nil {
		return fmt.Errorf("gobDecode: could not decode features: %v", err)
	}
	if err := dec.Decode(&actions); err != nil {
		return fmt.Errorf("gobDecode: could not decode actions: %v", err)
	}

	var hidden []int
	if err := dec.Decode(&hidden); err != nil {
		return fmt.Errorf("gobDecode: could not decode hidden sizes: %v",
			err)
	}

	act := &network.Activation{}
	if err := dec.Decode(act); err != nil {
		return fmt.Errorf("gobDecode: could not decode activation: %v", err)
	}

	var stateIndependentStd bool
	if err := dec.Decode(&stateIndependentStd); err != nil {
		return fmt.Errorf("gobDecode: could not decode std type: %v", err)
	}

	// Construct a policy of the right architecture, then fill in its
	// parameters
	decoded, err := NewStochastic(features, actions, hidden, act,
		stateIndependentStd, 0)
	if err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	params := decoded.Parameters()
	for i := range params {
		var data []byte
		if err := dec.Decode(&data); err != nil {
			return fmt.Errorf("gobDecode: could not decode parameter %v: %v",
				i, err)
		}

		var param mat.Dense
		if err := param.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("gobDecode: could not unmarshal parameter "+
				"%v: %v", i, err)
		}
		r, c := params[i].Dims()
		pr, pc := param.Dims()
		if r != pr || c != pc {
			return fmt.Errorf("gobDecode: parameter %v has shape (%v, %v) "+
				"but want (%v, %v)", i, pr, pc, r, c)
		}
		params[i].Copy(&param)
	}

	*p = *decoded
	return nil
}
