// Package envconfig creates environments by name. Native environments
// are registered by this package; when built with the gogym build tag,
// any other name is looked up in the OpenAI Gym suite.
package envconfig

import (
	"fmt"
	"sort"

	env "github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/environment/pendulum"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration without Gym
const (
	Pendulum EnvName = "Pendulum-v0"
)

// Creator creates a new environment seeded with seed. A non-positive
// maxEpisodeSteps selects the environment's default step limit.
type Creator func(seed uint64, maxEpisodeSteps int) (env.Environment, error)

// Factory creates fresh, independently seeded instances of a single
// configured environment
type Factory func(seed uint64) (env.Environment, error)

var (
	registered = map[EnvName]Creator{
		Pendulum: CreatePendulum,
	}

	// fallback creates environments with names that are not registered
	fallback func(name string, seed uint64,
		maxEpisodeSteps int) (env.Environment, error)
)

// Register registers a Creator for the environment with the given name.
// Registering a name twice panics.
func Register(name EnvName, c Creator) {
	if _, ok := registered[name]; ok {
		panic(fmt.Sprintf("register: environment %v already registered",
			name))
	}
	registered[name] = c
}

// Names returns the names of all registered environments
func Names() []string {
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Create returns a new environment with the given name
func Create(name string, seed uint64, maxEpisodeSteps int) (env.Environment,
	error) {
	if c, ok := registered[EnvName(name)]; ok {
		return c(seed, maxEpisodeSteps)
	}

	if fallback != nil {
		e, err := fallback(name, seed, maxEpisodeSteps)
		if err != nil {
			return nil, fmt.Errorf("create: %w", err)
		}
		return e, nil
	}

	return nil, fmt.Errorf("create: no such environment %v, available "+
		"environments are %v", name, Names())
}

// NewFactory returns a Factory for the environment with the given name.
// The name is validated by creating, and then closing, one instance of
// the environment.
func NewFactory(name string, maxEpisodeSteps int) (Factory, error) {
	e, err := Create(name, 0, maxEpisodeSteps)
	if err != nil {
		return nil, fmt.Errorf("newFactory: %w", err)
	}
	if err := env.Close(e); err != nil {
		return nil, fmt.Errorf("newFactory: %w", err)
	}

	return func(seed uint64) (env.Environment, error) {
		return Create(name, seed, maxEpisodeSteps)
	}, nil
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and the swing-up task
func CreatePendulum(seed uint64, maxEpisodeSteps int) (env.Environment,
	error) {
	return pendulum.New(maxEpisodeSteps, seed), nil
}
