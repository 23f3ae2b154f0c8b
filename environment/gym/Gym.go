//go:build gogym

// Package gym provides access to OpenAI Gym environments with
// continuous (Box) action spaces.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym. The package is only
// built with the gogym build tag, since it requires a Python
// installation with Gym available.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/expertgen/environment"
	ts "github.com/samuelfneumann/expertgen/timestep"
)

// episodeLimits holds the TimeLimit of commonly used Gym environments
var episodeLimits = map[string]int{
	"Pendulum-v0":               200,
	"MountainCarContinuous-v0":  999,
	"LunarLanderContinuous-v2":  1000,
	"BipedalWalker-v3":          1600,
	"Ant-v2":                    1000,
	"Hopper-v2":                 1000,
	"Humanoid-v2":               1000,
	"HalfCheetah-v2":            1000,
	"Walker2d-v2":               1000,
	"InvertedPendulum-v2":       1000,
	"InvertedDoublePendulum-v2": 1000,
	"Reacher-v2":                50,
	"Swimmer-v2":                1000,
}

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment
	*env.UniformSampler

	currentStep ts.TimeStep
	maxSteps    int
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite with a Box action space. If
// maxEpisodeSteps is non-positive, the environment's known TimeLimit is
// used; environments without a known limit are then unbounded.
func New(name string, seed uint64, maxEpisodeSteps int) (*GymEnv, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment: %v",
			err)
	}

	if _, ok := goGymEnv.ActionSpace().(*gogym.BoxSpace); !ok {
		goGymEnv.Close()
		return nil, fmt.Errorf("new: environment %v does not have "+
			"continuous actions", name)
	}

	if maxEpisodeSteps <= 0 {
		maxEpisodeSteps = episodeLimits[name]
	}

	gymEnv := &GymEnv{
		Environment: goGymEnv,
		maxSteps:    maxEpisodeSteps,
	}
	gymEnv.UniformSampler = env.NewUniformSampler(gymEnv.ActionSpec(),
		seed+1)
	gymEnv.Environment.Seed(int(seed))

	return gymEnv, nil
}

// Seed reseeds the environment and its action sampler
func (g *GymEnv) Seed(seed uint64) {
	g.Environment.Seed(int(seed))
	g.SeedSampler(seed + 1)
}

// Step takes a single environmental step. The episode ends when Gym
// signals it or when the configured step limit is reached.
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, obs, g.currentStep.Number+1)
	if g.maxSteps > 0 && t.Number >= g.maxSteps {
		done = true
	}
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, obs, 0)
	g.currentStep = t

	return t, nil
}

// MaxEpisodeSteps returns the episode step limit, non-positive if the
// episodes are unbounded
func (g *GymEnv) MaxEpisodeSteps() int {
	return g.maxSteps
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return spaceSpec(g.ObservationSpace(), env.Observation)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return spaceSpec(g.ActionSpace(), env.Action)
}

// space is the subset of GoGym's space API used to build specifications
type space interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

// spaceSpec converts a GoGym space to an environment specification
func spaceSpec(s space, t env.SpecType) env.Spec {
	var low, high *mat.VecDense
	switch s.(type) {
	case *gogym.BoxSpace, *gogym.DiscreteSpace:
		low = s.Low()[0]
		high = s.High()[0]
	default:
		panic("spaceSpec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, t, low, high, env.Continuous)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
