package gaussianac

import (
	"encoding/json"
	"fmt"

	"github.com/samuelfneumann/expertgen/initwfn"
	"github.com/samuelfneumann/expertgen/network"
	"github.com/samuelfneumann/expertgen/solver"
)

// Config implements a configuration for a GaussianAC agent. The actor
// is a policy.Stochastic with hidden layer sizes Hidden, and the critic
// is a state value function MLP with hidden layer sizes CriticHidden.
// Both use the same Activation in their hidden layers.
type Config struct {
	// Actor
	Hidden              []int
	Activation          *network.Activation
	StateIndependentStd bool
	ActorSolver         *solver.Solver

	// Critic
	CriticHidden []int
	CriticInit   *initwfn.InitWFn
	CriticSolver *solver.Solver

	Discount float64
}

// DefaultConfig returns the default GaussianAC configuration
func DefaultConfig() Config {
	actorSolver, err := solver.NewDefaultAdam(3e-4, 1)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}
	criticSolver, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}

	return Config{
		Hidden:              []int{64, 64},
		Activation:          network.TanH(),
		StateIndependentStd: true,
		ActorSolver:         actorSolver,

		CriticHidden: []int{64, 64},
		CriticInit:   init,
		CriticSolver: criticSolver,

		Discount: 0.99,
	}
}

// ParseConfig returns the configuration described by data. Fields
// missing from data keep their default values. An empty data returns
// the default configuration.
func ParseConfig(data json.RawMessage) (Config, error) {
	config := DefaultConfig()
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parseConfig: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("parseConfig: %w", err)
	}
	return config, nil
}

// Validate checks a Config to ensure it is a valid configuration
func (c Config) Validate() error {
	for i, h := range c.Hidden {
		if h < 1 {
			return fmt.Errorf("validate: actor hidden layer %v has size %v",
				i, h)
		}
	}
	for i, h := range c.CriticHidden {
		if h < 1 {
			return fmt.Errorf("validate: critic hidden layer %v has size %v",
				i, h)
		}
	}

	if c.Activation == nil {
		return fmt.Errorf("validate: activation must be specified")
	}
	if c.CriticInit == nil {
		return fmt.Errorf("validate: critic weight initializer must be " +
			"specified")
	}
	if c.ActorSolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("validate: actor and critic solvers must be " +
			"specified")
	}

	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1] but got %v",
			c.Discount)
	}
	return nil
}
