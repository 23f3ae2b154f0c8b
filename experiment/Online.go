package experiment

import (
	"fmt"
	"log"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/agent"
	env "github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/experiment/checkpointer"
	"github.com/samuelfneumann/expertgen/experiment/tracker"
	"github.com/samuelfneumann/expertgen/normalizer"
	ts "github.com/samuelfneumann/expertgen/timestep"
)

// StepHook is called after each training step t (counted from 1) with
// the phase in which the step was taken
type StepHook func(t int, phase Phase)

// Option configures an Online experiment
type Option func(*Online)

// WithNormalizer sets the normalizer applied to training observations
func WithNormalizer(n normalizer.Normalizer) Option {
	return func(o *Online) { o.norm = n }
}

// WithLogger sets the logger of episode and evaluation summaries
func WithLogger(l *log.Logger) Option {
	return func(o *Online) { o.logger = l }
}

// WithTracker sets the Tracker which records returns and scores
func WithTracker(t tracker.Tracker) Option {
	return func(o *Online) { o.tracker = t }
}

// WithStepHook sets a function called after each training step
func WithStepHook(h StepHook) Option {
	return func(o *Online) { o.stepHook = h }
}

// Online is an Experiment that trains an agent online, one transition
// at a time, and periodically evaluates it.
//
// Before training, the agent is resumed from an existing checkpoint if
// there is one and a baseline evaluation is performed. Then, on each of
// Config.MaxTimesteps steps, the agent selects an action, the
// environment is stepped, and the agent learns from the resulting
// transition. Every Config.EvalFreq steps the agent is evaluated and
// checkpointed if its score improved. Finally, the best checkpoint is
// loaded into the agent, which is returned.
//
// For the first Config.StartTimesteps steps of a run that did not
// resume from a checkpoint, random actions are taken instead of the
// agent's actions.
type Online struct {
	env          env.Environment
	agent        agent.Agent
	scorer       Scorer
	checkpointer checkpointer.Checkpointer
	config       Config

	norm     normalizer.Normalizer
	logger   *log.Logger
	tracker  tracker.Tracker
	stepHook StepHook

	resumed bool
	phase   Phase
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent
func NewOnline(e env.Environment, a agent.Agent, scorer Scorer,
	c checkpointer.Checkpointer, config Config, opts ...Option) (*Online,
	error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}

	o := &Online{
		env:          e,
		agent:        a,
		scorer:       scorer,
		checkpointer: c,
		config:       config,
		norm:         normalizer.NewIdentity(),
		logger:       log.New(os.Stdout, "", log.LstdFlags),
		tracker:      tracker.Discard,
		phase:        WarmStart,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Phase returns the current phase of the experiment
func (o *Online) Phase() Phase {
	return o.phase
}

// Resumed returns whether the experiment resumed from a checkpoint
func (o *Online) Resumed() bool {
	return o.resumed
}

// phaseAt returns the phase of training step t
func (o *Online) phaseAt(t int) Phase {
	if t < o.config.StartTimesteps && !o.resumed {
		return WarmStart
	}
	return Active
}

// Run runs the entire experiment for all timesteps and returns the
// agent with the parameters of its best checkpoint
func (o *Online) Run() (agent.Agent, error) {
	resumed, err := o.checkpointer.Resume(o.agent)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	o.resumed = resumed
	if resumed {
		o.logger.Println("Successfully loaded checkpoint")
	}

	// Evaluate before any update to get a baseline
	if err := o.evaluate(0); err != nil {
		return nil, fmt.Errorf("run: baseline: %w", err)
	}

	step, err := o.env.Reset()
	if err != nil {
		return nil, fmt.Errorf("run: could not reset environment: %w", err)
	}
	obs := o.norm.Normalize(step.Observation)

	episodeReturn, episodeSteps, episode := 0.0, 0, 0
	for t := 0; t < o.config.MaxTimesteps; t++ {
		o.phase = o.phaseAt(t)
		episodeSteps++

		var action *mat.VecDense
		if o.phase == WarmStart {
			action = o.env.SampleAction()
		} else {
			action, err = o.agent.SelectAction(obs, true)
			if err != nil {
				return nil, fmt.Errorf("run: step %v: could not select "+
					"action: %w", t, err)
			}
		}

		next, done, err := o.env.Step(action)
		if err != nil {
			return nil, fmt.Errorf("run: step %v: could not step "+
				"environment: %w", t, err)
		}
		nextObs := o.norm.Normalize(next.Observation)

		terminal := ts.IsTerminal(done, episodeSteps, o.env.MaxEpisodeSteps())
		transition := ts.NewTransition(obs, action, nextObs, next.Reward,
			terminal)
		if err := o.agent.Learn(transition); err != nil {
			return nil, fmt.Errorf("run: step %v: %w", t, err)
		}
		obs = nextObs
		episodeReturn += next.Reward

		if done {
			o.logger.Printf("Total T: %d Episode Num: %d Episode T: %d "+
				"Reward: %.3f", t+1, episode+1, episodeSteps, episodeReturn)
			o.tracker.Record(tracker.TrainReturn, t+1, episodeReturn)
			o.tracker.Record(tracker.TrainEpisode, t+1, float64(episodeSteps))

			step, err = o.env.Reset()
			if err != nil {
				return nil, fmt.Errorf("run: step %v: could not reset "+
					"environment: %w", t, err)
			}
			obs = o.norm.Normalize(step.Observation)

			episodeReturn, episodeSteps = 0.0, 0
			episode++
		}

		if (t+1)%o.config.EvalFreq == 0 {
			if err := o.evaluate(t + 1); err != nil {
				return nil, fmt.Errorf("run: step %v: %w", t, err)
			}
		}

		if o.stepHook != nil {
			o.stepHook(t+1, o.phase)
		}
	}
	o.phase = Done

	// Use the best model
	if err := o.checkpointer.Load(o.agent); err != nil {
		return nil, fmt.Errorf("run: could not load best checkpoint: %w", err)
	}
	return o.agent, nil
}

// evaluate evaluates the agent, records its score at step t, and
// checkpoints it if the score improved
func (o *Online) evaluate(t int) error {
	score, err := o.scorer.Evaluate(o.agent)
	if err != nil {
		return err
	}
	o.tracker.Record(tracker.EvalReturn, t, score)

	saved, err := o.checkpointer.Consider(score, o.agent)
	if err != nil {
		return err
	}
	if saved {
		o.tracker.Record(tracker.EvalBestReturn, t, score)
	}
	o.logger.Printf("Evaluation at T: %d Average Reward: %.3f Saved: %v", t,
		score, saved)
	return nil
}
