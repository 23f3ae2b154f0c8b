// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/expertgen/agent"
)

// Experiment trains an agent and returns the trained agent
type Experiment interface {
	Run() (agent.Agent, error)
}

// Scorer measures the performance of an agent
type Scorer interface {
	Evaluate(a agent.Agent) (float64, error)
}

// Phase is the phase of an Online experiment
type Phase int

const (
	// WarmStart selects uniformly random actions to seed early
	// experience
	WarmStart Phase = iota

	// Active selects actions with the agent's policy
	Active

	// Done is reached once the step budget is exhausted
	Done
)

func (p Phase) String() string {
	switch p {
	case WarmStart:
		return "WarmStart"
	case Active:
		return "Active"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Config represents a configuration of an Online experiment
type Config struct {
	// Number of environment steps to train for
	MaxTimesteps int

	// Number of environment steps between evaluations
	EvalFreq int

	// Number of environment steps at the start of training on which
	// random actions are taken
	StartTimesteps int
}

// Validate returns an error if the Config is illegal
func (c Config) Validate() error {
	if c.MaxTimesteps < 0 {
		return fmt.Errorf("validate: max timesteps must be non-negative "+
			"but got %v", c.MaxTimesteps)
	}
	if c.EvalFreq < 1 {
		return fmt.Errorf("validate: evaluation frequency must be positive "+
			"but got %v", c.EvalFreq)
	}
	if c.StartTimesteps < 0 {
		return fmt.Errorf("validate: start timesteps must be non-negative "+
			"but got %v", c.StartTimesteps)
	}
	return nil
}
