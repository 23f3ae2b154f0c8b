package gaussianac

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/agent"
	"github.com/samuelfneumann/expertgen/environment/pendulum"
	"github.com/samuelfneumann/expertgen/initwfn"
	"github.com/samuelfneumann/expertgen/network"
	"github.com/samuelfneumann/expertgen/solver"
	ts "github.com/samuelfneumann/expertgen/timestep"
)

// smallConfig returns a configuration with small networks
func smallConfig(t *testing.T, stateIndependentStd bool) Config {
	t.Helper()
	config := DefaultConfig()
	config.Hidden = []int{8}
	config.CriticHidden = []int{8}
	config.StateIndependentStd = stateIndependentStd

	var err error
	config.ActorSolver, err = solver.NewVanilla(1e-4, 1, -1)
	if err != nil {
		t.Fatalf("newVanilla: %v", err)
	}
	config.CriticSolver, err = solver.NewVanilla(1e-3, 1, -1)
	if err != nil {
		t.Fatalf("newVanilla: %v", err)
	}
	return config
}

// logPdf returns the log density of action under the policy of a in
// the state obs
func logPdf(t *testing.T, a *GaussianAC, obs, action *mat.VecDense) float64 {
	t.Helper()
	mean, std, err := a.Policy().Forward(obs)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	logProb := 0.0
	for i := 0; i < mean.Len(); i++ {
		z := (action.AtVec(i) - mean.AtVec(i)) / std.AtVec(i)
		logProb += -0.5*z*z - math.Log(std.AtVec(i)) - 0.5*math.Log(2*math.Pi)
	}
	return logProb
}

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if config.Discount != 0.99 {
		t.Errorf("parseConfig: discount \n\twant(0.99) \n\thave(%v)",
			config.Discount)
	}

	data := json.RawMessage(`{
		"Hidden": [16],
		"Activation": "relu",
		"Discount": 0.9,
		"CriticInit": {"Type": "Zeroes", "Config": {}},
		"ActorSolver": {"Type": "Vanilla", "Config": {"StepSize": 0.01, "Batch": 1}}
	}`)
	config, err = ParseConfig(data)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if len(config.Hidden) != 1 || config.Hidden[0] != 16 {
		t.Errorf("parseConfig: hidden \n\twant([16]) \n\thave(%v)",
			config.Hidden)
	}
	if config.Activation.String() != "relu" {
		t.Errorf("parseConfig: activation \n\twant(relu) \n\thave(%v)",
			config.Activation)
	}
	if config.CriticInit.Type != initwfn.Zeroes {
		t.Errorf("parseConfig: critic init \n\twant(%v) \n\thave(%v)",
			initwfn.Zeroes, config.CriticInit.Type)
	}
	if config.ActorSolver.Type != solver.Vanilla {
		t.Errorf("parseConfig: actor solver \n\twant(%v) \n\thave(%v)",
			solver.Vanilla, config.ActorSolver.Type)
	}
	if len(config.CriticHidden) != 2 {
		t.Errorf("parseConfig: critic hidden should keep its default, "+
			"have(%v)", config.CriticHidden)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []string{
		`{"Discount": 1.5}`,
		`{"Discount": -0.1}`,
		`{"Hidden": [4, 0]}`,
		`{"CriticHidden": [-1]}`,
		`{"Activation": "sigmoid"}`,
		`{"ActorSolver": {"Type": "SGD", "Config": {}}}`,
		`not json`,
	}

	for _, test := range tests {
		if _, err := ParseConfig(json.RawMessage(test)); err == nil {
			t.Errorf("parseConfig(%v): expected error", test)
		}
	}
}

func TestRegistered(t *testing.T) {
	e := pendulum.New(0, 1)
	a, err := agent.New(Type, e, json.RawMessage(`{"Hidden": [8]}`), 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.(*GaussianAC); !ok {
		t.Errorf("new: \n\twant(*GaussianAC) \n\thave(%T)", a)
	}
}

func TestSelectAction(t *testing.T) {
	e := pendulum.New(0, 1)
	a, err := NewGaussianAC(e, smallConfig(t, true), 3)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}

	step, err := e.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	first, err := a.SelectAction(step.Observation, false)
	if err != nil {
		t.Fatalf("selectAction: %v", err)
	}
	second, _ := a.SelectAction(step.Observation, false)
	if !mat.Equal(first, second) {
		t.Errorf("selectAction: deterministic actions differ \n\t%v \n\t%v",
			mat.Formatted(first.T()), mat.Formatted(second.T()))
	}
	if first.Len() != pendulum.ActionDims {
		t.Errorf("selectAction: action size \n\twant(%v) \n\thave(%v)",
			pendulum.ActionDims, first.Len())
	}

	sampled, err := a.SelectAction(step.Observation, true)
	if err != nil {
		t.Fatalf("selectAction: %v", err)
	}
	if mat.Equal(first, sampled) {
		t.Error("selectAction: training action should be sampled")
	}

	if _, err := a.SelectAction(mat.NewVecDense(2, nil), false); err == nil {
		t.Error("selectAction: expected error for wrong observation size")
	}
}

func TestLearnIncreasesLogProbability(t *testing.T) {
	for _, stateIndependent := range []bool{true, false} {
		e := pendulum.New(0, 2)
		a, err := NewGaussianAC(e, smallConfig(t, stateIndependent), 2)
		if err != nil {
			t.Fatalf("newGaussianAC: %v", err)
		}

		state := mat.NewVecDense(3, []float64{1, 0, 0.5})
		nextState := mat.NewVecDense(3, []float64{0.9, 0.1, 0.4})
		action := mat.NewVecDense(1, []float64{1.5})

		// A large reward on a terminal transition gives a positive
		// TD error, so the action should become more likely
		before := logPdf(t, a, state, action)
		transition := ts.NewTransition(state, action, nextState, 100, true)
		if err := a.Learn(transition); err != nil {
			t.Fatalf("learn: %v", err)
		}
		after := logPdf(t, a, state, action)

		if !(after > before) {
			t.Errorf("learn (state independent = %v): log probability did "+
				"not increase \n\tbefore(%v) \n\tafter(%v)", stateIndependent,
				before, after)
		}
	}
}

func TestLearnErrors(t *testing.T) {
	e := pendulum.New(0, 2)
	a, err := NewGaussianAC(e, smallConfig(t, true), 2)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}

	state := mat.NewVecDense(3, nil)
	action := mat.NewVecDense(1, nil)
	tests := []ts.Transition{
		ts.NewTransition(mat.NewVecDense(2, nil), action, state, 0, false),
		ts.NewTransition(state, mat.NewVecDense(2, nil), state, 0, false),
		ts.NewTransition(state, action, state, math.NaN(), false),
		ts.NewTransition(state, action, state, math.Inf(1), false),
	}

	for i, test := range tests {
		if err := a.Learn(test); err == nil {
			t.Errorf("learn: expected error for transition %v", i)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	e := pendulum.New(0, 4)
	config := smallConfig(t, false)
	a, err := NewGaussianAC(e, config, 4)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}

	// Learn for a few steps so that the parameters differ from their
	// initial values
	step, _ := e.Reset()
	obs := step.Observation
	for i := 0; i < 10; i++ {
		action, err := a.SelectAction(obs, true)
		if err != nil {
			t.Fatalf("selectAction: %v", err)
		}
		next, done, err := e.Step(action)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		err = a.Learn(ts.NewTransition(obs, action, next.Observation,
			next.Reward, done))
		if err != nil {
			t.Fatalf("learn: %v", err)
		}
		obs = next.Observation
	}

	path := filepath.Join(t.TempDir(), "model.bin")
	if err := a.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	b, err := NewGaussianAC(e, config, 99)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}
	if err := b.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	observations := []*mat.VecDense{
		mat.NewVecDense(3, []float64{1, 0, 0}),
		mat.NewVecDense(3, []float64{-0.5, 0.8, 3}),
		obs,
	}
	for _, o := range observations {
		want, _ := a.SelectAction(o, false)
		have, _ := b.SelectAction(o, false)
		if !mat.Equal(want, have) {
			t.Errorf("load: \n\twant(%v) \n\thave(%v)",
				mat.Formatted(want.T()), mat.Formatted(have.T()))
		}

		wantV, _ := a.value(o)
		haveV, _ := b.value(o)
		if wantV != haveV {
			t.Errorf("load: value \n\twant(%v) \n\thave(%v)", wantV, haveV)
		}
	}

	// Loaded agents continue to learn
	transition := ts.NewTransition(observations[0], mat.NewVecDense(1,
		[]float64{0.1}), observations[1], -1, false)
	if err := b.Learn(transition); err != nil {
		t.Errorf("learn after load: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	e := pendulum.New(0, 4)
	a, err := NewGaussianAC(e, smallConfig(t, true), 4)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}

	dir := t.TempDir()
	err = a.Load(filepath.Join(dir, "missing.bin"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("load: want not-exist error, have %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.bin")
	if err := os.WriteFile(corrupt, []byte("not a checkpoint"), 0644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	if err := a.Load(corrupt); err == nil {
		t.Error("load: expected error for corrupt checkpoint")
	}

	// Architectures must match
	other := smallConfig(t, true)
	other.Hidden = []int{4}
	b, err := NewGaussianAC(e, other, 4)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}
	path := filepath.Join(dir, "other.bin")
	if err := b.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := a.Load(path); err == nil {
		t.Error("load: expected error for mismatched architecture")
	}

	// Equal layer sizes do not make policies compatible
	relu := smallConfig(t, true)
	relu.Activation = network.ReLU()
	c, err := NewGaussianAC(e, relu, 4)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}
	path = filepath.Join(dir, "relu.bin")
	if err := c.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := a.Load(path); err == nil {
		t.Error("load: expected error for mismatched activation")
	}

	d, err := NewGaussianAC(e, smallConfig(t, false), 4)
	if err != nil {
		t.Fatalf("newGaussianAC: %v", err)
	}
	path = filepath.Join(dir, "dependent.bin")
	if err := d.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := a.Load(path); err == nil {
		t.Error("load: expected error for mismatched std type")
	}
}
