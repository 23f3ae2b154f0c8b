// Package agent defines an agent interface
package agent

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent chooses actions in each state and learns from the
// transitions those actions produce. In training mode, actions are
// sampled from the agent's stochastic policy. Outside of training mode,
// actions are deterministic: the same observation and parameters always
// produce the same action.
type Agent interface {
	Saver
	Loader

	// SelectAction returns the action to take given an observation
	SelectAction(obs *mat.VecDense, training bool) (*mat.VecDense, error)

	// Learn performs exactly one update using a single transition.
	// Any failure, including a non-finite loss, is returned.
	Learn(t timestep.Transition) error
}

// Saver persists the learnable state of an agent to a file
type Saver interface {
	Save(path string) error
}

// Loader restores the learnable state of an agent from a file written
// by Save. After loading, deterministic actions are identical to those
// of the agent that was saved.
type Loader interface {
	Load(path string) error
}

// Type represents a type of an agent, e.g. GaussianAC
type Type string

// Constructor creates an agent acting in env from a raw JSON
// configuration
type Constructor func(env environment.Environment, config json.RawMessage,
	seed uint64) (Agent, error)

// Registered types with the package. Once a Type has been registered,
// agents of that type can be created by name with New.
//
// No Type's are registered with this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes = make(map[Type]Constructor)

// Register registers a constructor for agents of type agentType.
// Registering the same type twice panics.
func Register(agentType Type, c Constructor) {
	if _, ok := registeredTypes[agentType]; ok {
		panic(fmt.Sprintf("register: agent type %v already registered",
			agentType))
	}
	registeredTypes[agentType] = c
}

// Registered returns the sorted names of all registered agent types
func Registered() []Type {
	types := make([]Type, 0, len(registeredTypes))
	for t := range registeredTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// New creates a new agent of the registered type agentType
func New(agentType Type, env environment.Environment,
	config json.RawMessage, seed uint64) (Agent, error) {
	c, ok := registeredTypes[agentType]
	if !ok {
		return nil, fmt.Errorf("new: unknown agent type %q (registered: %v)",
			agentType, Registered())
	}

	a, err := c(env, config, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create %v agent: %w",
			agentType, err)
	}
	return a, nil
}
