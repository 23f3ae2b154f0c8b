// Package gaussianac implements a one-step online actor-critic agent
// with a Gaussian policy
package gaussianac

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/expertgen/agent"
	"github.com/samuelfneumann/expertgen/agent/policy"
	env "github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/network"
	"github.com/samuelfneumann/expertgen/solver"
	ts "github.com/samuelfneumann/expertgen/timestep"
	"github.com/samuelfneumann/expertgen/utils/floatutils"
	"github.com/samuelfneumann/expertgen/utils/op"
)

// Type is the agent.Type of GaussianAC agents
const Type agent.Type = "GaussianAC"

func init() {
	agent.Register(Type, New)
}

// GaussianAC implements a one-step online actor-critic algorithm.
//
// After each transition (S, A, R, S'), the critic computes the TD error
// δ = R + γ(1 - terminal)v(S') - v(S). The actor then takes a step along
// δ∇log π(A|S), and the critic takes a step to minimize
// (R + γ(1 - terminal)v(S') - v(S))².
//
// The actor's parameters live in a policy.Stochastic, which is used to
// select actions. The learning graph mirrors those parameters, and the
// updated values are copied back into the policy after each step.
type GaussianAC struct {
	features, actions int
	discount          float64

	policy *policy.Stochastic
	noise  *distmv.Normal

	// Actor learning graph
	actorParams  G.Nodes
	actorState   *G.Node
	actorAction  *G.Node
	advantages   *G.Node
	actorLossVal G.Value
	actorVM      G.VM
	actorSolver  *solver.Solver

	// State value critic
	vTrainValueFn        network.NeuralNet
	vTrainValueFnTargets *G.Node
	vTrainValueFnVM      G.VM
	vLossVal             G.Value
	vSolver              *solver.Solver
	vValueFn             network.NeuralNet
	vVM                  G.VM

	// Solver configurations, cloned to reset the solvers on Load
	actorSolverConf  *solver.Solver
	criticSolverConf *solver.Solver
}

// New returns a new GaussianAC agent, configured by the JSON
// configuration c, which acts in e
func New(e env.Environment, c json.RawMessage,
	seed uint64) (agent.Agent, error) {
	config, err := ParseConfig(c)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return NewGaussianAC(e, config, seed)
}

// NewGaussianAC returns a new GaussianAC agent which acts in e
func NewGaussianAC(e env.Environment, config Config,
	seed uint64) (*GaussianAC, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newGaussianAC: %w", err)
	}
	if e.ActionSpec().Cardinality != env.Continuous {
		return nil, fmt.Errorf("newGaussianAC: cannot use non-continuous "+
			"actions (%v)", e.ActionSpec().Cardinality)
	}

	features := e.ObservationSpec().Len()
	actions := e.ActionSpec().Len()

	p, err := policy.NewStochastic(features, actions, config.Hidden,
		config.Activation, config.StateIndependentStd, seed)
	if err != nil {
		return nil, fmt.Errorf("newGaussianAC: could not create policy: %v",
			err)
	}

	ones := make([]float64, actions)
	for i := range ones {
		ones[i] = 1.0
	}
	noise, ok := distmv.NewNormal(make([]float64, actions),
		mat.NewDiagDense(actions, ones), rand.NewSource(seed+1))
	if !ok {
		return nil, fmt.Errorf("newGaussianAC: could not create action " +
			"noise distribution")
	}

	a := &GaussianAC{
		features:    features,
		actions:     actions,
		discount:    config.Discount,
		policy:      p,
		noise:       noise,
		actorSolver: config.ActorSolver.Clone(),

		actorSolverConf:  config.ActorSolver,
		criticSolverConf: config.CriticSolver,
	}

	if err := a.buildActor(); err != nil {
		return nil, fmt.Errorf("newGaussianAC: %v", err)
	}
	if err := a.buildCritic(config); err != nil {
		return nil, fmt.Errorf("newGaussianAC: %v", err)
	}

	return a, nil
}

// buildActor constructs the computational graph of the actor loss
// -δ log π(A|S), whose learnables mirror the parameters of the policy
func (a *GaussianAC) buildActor() error {
	graph := G.NewGraph()

	params := a.policy.Parameters()
	a.actorParams = make(G.Nodes, len(params))
	for i, param := range params {
		r, c := param.Dims()
		a.actorParams[i] = G.NewMatrix(
			graph,
			tensor.Float64,
			G.WithShape(r, c),
			G.WithName(fmt.Sprintf("actorParam%d", i)),
			G.WithValue(denseToTensor(param)),
		)
	}

	a.actorState = G.NewMatrix(graph, tensor.Float64,
		G.WithShape(1, a.features), G.WithName("state"),
		G.WithInit(G.Zeroes()))
	a.actorAction = G.NewMatrix(graph, tensor.Float64,
		G.WithShape(1, a.actions), G.WithName("action"),
		G.WithInit(G.Zeroes()))
	a.advantages = G.NewVector(graph, tensor.Float64, G.WithShape(1),
		G.WithName("advantages"), G.WithInit(G.Zeroes()))

	// Feature extractor
	features := a.actorState
	var err error
	layer := 0
	for ; layer < len(a.policy.Hidden()); layer++ {
		features, err = linear(features, a.actorParams[2*layer],
			a.actorParams[2*layer+1])
		if err != nil {
			return fmt.Errorf("buildActor: hidden layer %v: %v", layer, err)
		}
		features, err = a.policy.Activation().Fwd(features)
		if err != nil {
			return fmt.Errorf("buildActor: hidden layer %v activation: %v",
				layer, err)
		}
	}

	// Heads
	next := 2 * layer
	mean, err := linear(features, a.actorParams[next],
		a.actorParams[next+1])
	if err != nil {
		return fmt.Errorf("buildActor: mean head: %v", err)
	}

	var logStd *G.Node
	if a.policy.StateIndependentStd() {
		logStd = a.actorParams[next+2]
	} else {
		logStd, err = linear(features, a.actorParams[next+2],
			a.actorParams[next+3])
		if err != nil {
			return fmt.Errorf("buildActor: log std head: %v", err)
		}
	}
	logStd, err = op.Clip(logStd, policy.LogStdMin, policy.LogStdMax)
	if err != nil {
		return fmt.Errorf("buildActor: %v", err)
	}

	logProb, err := op.GaussianLogPdf(mean, logStd, a.actorAction)
	if err != nil {
		return fmt.Errorf("buildActor: %v", err)
	}

	loss := G.Must(G.HadamardProd(logProb, a.advantages))
	loss = G.Must(G.Mean(loss))
	loss = G.Must(G.Neg(loss))
	G.Read(loss, &a.actorLossVal)

	if _, err := G.Grad(loss, a.actorParams...); err != nil {
		return fmt.Errorf("buildActor: could not compute the policy "+
			"gradient: %v", err)
	}
	a.actorVM = G.NewTapeMachine(graph, G.BindDualValues(a.actorParams...))

	return nil
}

// buildCritic constructs the state value function and its learning
// graph
func (a *GaussianAC) buildCritic(config Config) error {
	biases := make([]bool, len(config.CriticHidden))
	acts := make([]*network.Activation, len(config.CriticHidden))
	for i := range config.CriticHidden {
		biases[i] = true
		acts[i] = config.Activation
	}

	trainValueFn, err := network.NewMLP(a.features, 1, 1, G.NewGraph(),
		config.CriticHidden, biases, config.CriticInit.InitWFn(), acts)
	if err != nil {
		return fmt.Errorf("buildCritic: could not create value function: %v",
			err)
	}

	targets := G.NewMatrix(
		trainValueFn.Graph(),
		tensor.Float64,
		G.WithShape(trainValueFn.Prediction().Shape()...),
		G.WithName("valueFunctionUpdateTarget"),
		G.WithInit(G.Zeroes()),
	)
	loss := G.Must(G.Sub(trainValueFn.Prediction(), targets))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))
	G.Read(loss, &a.vLossVal)

	if _, err := G.Grad(loss, trainValueFn.Learnables()...); err != nil {
		return fmt.Errorf("buildCritic: could not compute value function "+
			"gradient: %v", err)
	}

	valueFn, err := trainValueFn.Clone()
	if err != nil {
		return fmt.Errorf("buildCritic: could not clone value function: %v",
			err)
	}

	a.vTrainValueFn = trainValueFn
	a.vTrainValueFnTargets = targets
	a.vTrainValueFnVM = G.NewTapeMachine(trainValueFn.Graph(),
		G.BindDualValues(trainValueFn.Learnables()...))
	a.vSolver = config.CriticSolver.Clone()
	a.vValueFn = valueFn
	a.vVM = G.NewTapeMachine(valueFn.Graph())

	return nil
}

// Policy returns the agent's policy
func (a *GaussianAC) Policy() *policy.Stochastic {
	return a.policy
}

// SelectAction returns an action sampled from the policy if training
// and the mean of the policy otherwise
func (a *GaussianAC) SelectAction(obs *mat.VecDense,
	training bool) (*mat.VecDense, error) {
	mean, std, err := a.policy.Forward(obs)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}
	if !training {
		return mean, nil
	}

	eps := mat.NewVecDense(a.actions, a.noise.Rand(nil))
	eps.MulElemVec(eps, std)
	mean.AddVec(mean, eps)
	return mean, nil
}

// Learn performs a single update of the actor and critic using the
// transition t
func (a *GaussianAC) Learn(t ts.Transition) error {
	if t.State.Len() != a.features || t.NextState.Len() != a.features {
		return fmt.Errorf("learn: invalid state size \n\twant(%v) "+
			"\n\thave(%v, %v)", a.features, t.State.Len(), t.NextState.Len())
	}
	if t.Action.Len() != a.actions {
		return fmt.Errorf("learn: invalid action size \n\twant(%v) "+
			"\n\thave(%v)", a.actions, t.Action.Len())
	}

	stateValue, err := a.value(t.State)
	if err != nil {
		return fmt.Errorf("learn: %v", err)
	}
	nextStateValue, err := a.value(t.NextState)
	if err != nil {
		return fmt.Errorf("learn: %v", err)
	}

	target := t.Reward + a.discount*(1-t.TerminalFloat())*nextStateValue
	tdError := target - stateValue
	if !floatutils.AllFinite(tdError) {
		return fmt.Errorf("learn: non-finite TD error %v", tdError)
	}

	if err := a.stepActor(t.State, t.Action, tdError); err != nil {
		return fmt.Errorf("learn: %v", err)
	}
	if err := a.stepCritic(t.State, target); err != nil {
		return fmt.Errorf("learn: %v", err)
	}
	return nil
}

// value returns the critic's prediction of the value of obs
func (a *GaussianAC) value(obs mat.Vector) (float64, error) {
	if err := a.vValueFn.SetInput(vecData(obs)); err != nil {
		return 0, fmt.Errorf("value: could not set critic input: %v", err)
	}
	defer a.vVM.Reset()
	if err := a.vVM.RunAll(); err != nil {
		return 0, fmt.Errorf("value: could not run critic: %v", err)
	}

	return a.vValueFn.Output().Data().([]float64)[0], nil
}

// stepActor takes one step along tdError·∇log π(action|state) and
// copies the new parameters into the policy
func (a *GaussianAC) stepActor(state, action *mat.VecDense,
	tdError float64) error {
	err := G.Let(a.actorState, tensor.New(
		tensor.WithShape(1, a.features),
		tensor.WithBacking(vecData(state)),
	))
	if err != nil {
		return fmt.Errorf("stepActor: %v", err)
	}
	err = G.Let(a.actorAction, tensor.New(
		tensor.WithShape(1, a.actions),
		tensor.WithBacking(vecData(action)),
	))
	if err != nil {
		return fmt.Errorf("stepActor: %v", err)
	}
	err = G.Let(a.advantages, tensor.New(
		tensor.WithShape(1),
		tensor.WithBacking([]float64{tdError}),
	))
	if err != nil {
		return fmt.Errorf("stepActor: %v", err)
	}

	defer a.actorVM.Reset()
	if err := a.actorVM.RunAll(); err != nil {
		return fmt.Errorf("stepActor: could not run actor: %v", err)
	}
	if loss := a.actorLossVal.Data().(float64); !floatutils.AllFinite(loss) {
		return fmt.Errorf("stepActor: non-finite policy loss %v", loss)
	}
	err = a.actorSolver.Step(G.NodesToValueGrads(a.actorParams))
	if err != nil {
		return fmt.Errorf("stepActor: could not step solver: %v", err)
	}

	params := make([]*mat.Dense, len(a.actorParams))
	for i, node := range a.actorParams {
		shape := node.Shape()
		data := node.Value().Data().([]float64)
		params[i] = mat.NewDense(shape[0], shape[1],
			append([]float64(nil), data...))
	}
	return a.policy.SetParameters(params)
}

// stepCritic takes one step to move v(state) towards target and
// synchronizes the prediction value function
func (a *GaussianAC) stepCritic(state *mat.VecDense, target float64) error {
	if err := a.vTrainValueFn.SetInput(vecData(state)); err != nil {
		return fmt.Errorf("stepCritic: %v", err)
	}
	err := G.Let(a.vTrainValueFnTargets, tensor.New(
		tensor.WithShape(a.vTrainValueFnTargets.Shape()...),
		tensor.WithBacking([]float64{target}),
	))
	if err != nil {
		return fmt.Errorf("stepCritic: %v", err)
	}

	defer a.vTrainValueFnVM.Reset()
	if err := a.vTrainValueFnVM.RunAll(); err != nil {
		return fmt.Errorf("stepCritic: could not run critic: %v", err)
	}
	if loss := a.vLossVal.Data().(float64); !floatutils.AllFinite(loss) {
		return fmt.Errorf("stepCritic: non-finite value loss %v", loss)
	}
	if err := a.vSolver.Step(a.vTrainValueFn.Model()); err != nil {
		return fmt.Errorf("stepCritic: could not step solver: %v", err)
	}

	return a.vValueFn.Set(a.vTrainValueFn)
}

// checkpoint is the serialized form of a GaussianAC
type checkpoint struct {
	Policy *policy.Stochastic
	Critic [][]float64
}

// Save saves the agent's policy and critic to a file at path
func (a *GaussianAC) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}

	c := checkpoint{Policy: a.policy, Critic: a.vTrainValueFn.Weights()}
	if err := gob.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("save: could not encode agent: %v", err)
	}
	return f.Close()
}

// Load loads the agent's policy and critic from a file at path, which
// must have been saved by an agent of the same architecture. Solver
// state is reset.
func (a *GaussianAC) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: could not open file: %w", err)
	}
	defer f.Close()

	var c checkpoint
	if err := gob.NewDecoder(f).Decode(&c); err != nil {
		return fmt.Errorf("load: could not decode agent: %v", err)
	}
	if c.Policy == nil {
		return fmt.Errorf("load: checkpoint has no policy")
	}

	if c.Policy.StateIndependentStd() != a.policy.StateIndependentStd() {
		return fmt.Errorf("load: incompatible policy: state independent "+
			"std %v, want %v", c.Policy.StateIndependentStd(),
			a.policy.StateIndependentStd())
	}
	have, want := c.Policy.Activation(), a.policy.Activation()
	if have.String() != want.String() {
		return fmt.Errorf("load: incompatible policy: activation %v, "+
			"want %v", have, want)
	}
	if err := a.policy.SetParameters(c.Policy.Parameters()); err != nil {
		return fmt.Errorf("load: incompatible policy: %v", err)
	}
	if err := a.vTrainValueFn.SetWeights(c.Critic); err != nil {
		return fmt.Errorf("load: incompatible critic: %v", err)
	}
	if err := a.vValueFn.Set(a.vTrainValueFn); err != nil {
		return fmt.Errorf("load: %v", err)
	}

	for i, param := range a.policy.Parameters() {
		dest := a.actorParams[i].Value().Data().([]float64)
		copy(dest, denseToTensor(param).Data().([]float64))
	}
	a.actorSolver = a.actorSolverConf.Clone()
	a.vSolver = a.criticSolverConf.Clone()

	return nil
}

// linear adds x·w + b to the graph of x
func linear(x, w, b *G.Node) (*G.Node, error) {
	out, err := G.Mul(x, w)
	if err != nil {
		return nil, err
	}
	return G.Add(out, b)
}

// denseToTensor returns a tensor holding a copy of m
func denseToTensor(m *mat.Dense) *tensor.Dense {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return tensor.New(tensor.WithShape(r, c), tensor.WithBacking(data))
}

// vecData returns a copy of the components of v
func vecData(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
