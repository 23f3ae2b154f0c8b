package experiment

import (
	"fmt"

	"github.com/samuelfneumann/expertgen/agent"
	env "github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/environment/envconfig"
	"github.com/samuelfneumann/expertgen/normalizer"
)

// EvalSeedOffset is added to the experiment seed to seed evaluation
// environments, so that evaluation episodes differ from training
// episodes
const EvalSeedOffset uint64 = 100

// Evaluator measures the performance of an agent by its mean episodic
// return over a number of episodes on a fresh environment, taking
// deterministic actions.
//
// Each call to Evaluate creates a new environment seeded identically,
// and observations are normalized without updating the normalizer, so
// that the same agent parameters always receive the same score.
type Evaluator struct {
	factory  envconfig.Factory
	seed     uint64
	episodes int
	norm     normalizer.Normalizer
}

// NewEvaluator returns a new Evaluator which evaluates agents for
// episodes episodes on environments created by factory. A nil norm
// leaves observations unchanged.
func NewEvaluator(factory envconfig.Factory, seed uint64, episodes int,
	norm normalizer.Normalizer) *Evaluator {
	if episodes < 1 {
		panic(fmt.Sprintf("newEvaluator: episodes must be positive but "+
			"got %v", episodes))
	}
	if norm == nil {
		norm = normalizer.NewIdentity()
	}

	return &Evaluator{
		factory:  factory,
		seed:     seed,
		episodes: episodes,
		norm:     norm,
	}
}

// Evaluate returns the mean return of a over the evaluation episodes
func (e *Evaluator) Evaluate(a agent.Agent) (score float64, err error) {
	environment, err := e.factory(e.seed + EvalSeedOffset)
	if err != nil {
		return 0, fmt.Errorf("evaluate: could not create environment: %w",
			err)
	}
	defer func() {
		if closeErr := env.Close(environment); closeErr != nil && err == nil {
			err = fmt.Errorf("evaluate: could not close environment: %w",
				closeErr)
		}
	}()

	total := 0.0
	for i := 0; i < e.episodes; i++ {
		episodeReturn, err := e.runEpisode(environment, a)
		if err != nil {
			return 0, fmt.Errorf("evaluate: episode %v: %w", i, err)
		}
		total += episodeReturn
	}

	return total / float64(e.episodes), nil
}

// runEpisode runs a single episode and returns its return
func (e *Evaluator) runEpisode(environment env.Environment,
	a agent.Agent) (float64, error) {
	step, err := environment.Reset()
	if err != nil {
		return 0, err
	}

	episodeReturn := 0.0
	for done := false; !done; {
		action, err := a.SelectAction(e.norm.Transform(step.Observation),
			false)
		if err != nil {
			return 0, err
		}

		step, done, err = environment.Step(action)
		if err != nil {
			return 0, err
		}
		episodeReturn += step.Reward
	}
	return episodeReturn, nil
}
