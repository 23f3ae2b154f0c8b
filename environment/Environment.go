// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
	Seed(seed uint64)
}

// Ender determines when episodes end. If the episode should end, End()
// sets the StepType of the argument TimeStep to timestep.Last and
// returns true.
type Ender interface {
	End(t *timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment, together with the distribution of starting states and
// the conditions under which an episode ends.
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
}

// Environment implements a simulated environment.
//
// Reset starts a new episode and Step takes a single environmental step,
// returning the next TimeStep and whether the episode is done. The done
// signal is the raw end-of-episode signal: it is true both when the
// episode terminated and when it was truncated at MaxEpisodeSteps.
//
// SampleAction samples uniformly from the action space and Seed reseeds
// every random process of the environment, including the action
// sampler. A non-positive MaxEpisodeSteps denotes an environment with
// no step limit.
type Environment interface {
	Reset() (timestep.TimeStep, error)
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	ObservationSpec() Spec
	ActionSpec() Spec
	MaxEpisodeSteps() int
	SampleAction() *mat.VecDense
	Seed(seed uint64)
}

// Closer is an Environment that holds resources which must be released
// once the environment is no longer needed
type Closer interface {
	Environment
	Close() error
}

// Close closes env if it is a Closer and does nothing otherwise
func Close(env Environment) error {
	if c, ok := env.(Closer); ok {
		return c.Close()
	}
	return nil
}
