package experiment

import (
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/agent"
	env "github.com/samuelfneumann/expertgen/environment"
	ts "github.com/samuelfneumann/expertgen/timestep"
)

// Actions taken by fakes, used to tell where an action came from
const (
	sampledAction float64 = -1
	agentAction   float64 = 1
)

// fakeEnv is an environment with one-dimensional observations equal to
// the number of steps taken in the current episode. It reports done
// when an episode reaches doneAt steps, regardless of maxSteps.
type fakeEnv struct {
	maxSteps int
	doneAt   int
	stepErr  error // Returned by Step if not nil

	episodeT int
	resets   int
	actions  []float64
}

func (f *fakeEnv) Reset() (ts.TimeStep, error) {
	f.episodeT = 0
	f.resets++
	return ts.New(ts.First, 0, mat.NewVecDense(1, nil), 0), nil
}

func (f *fakeEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if f.stepErr != nil {
		return ts.TimeStep{}, false, f.stepErr
	}
	f.episodeT++
	f.actions = append(f.actions, a.AtVec(0))

	done := f.episodeT >= f.doneAt
	stepType := ts.Mid
	if done {
		stepType = ts.Last
	}
	obs := mat.NewVecDense(1, []float64{float64(f.episodeT)})
	return ts.New(stepType, 1, obs, f.episodeT), done, nil
}

func (f *fakeEnv) spec(t env.SpecType) env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), t,
		mat.NewVecDense(1, []float64{-10}),
		mat.NewVecDense(1, []float64{10}), env.Continuous)
}

func (f *fakeEnv) ObservationSpec() env.Spec { return f.spec(env.Observation) }
func (f *fakeEnv) ActionSpec() env.Spec      { return f.spec(env.Action) }
func (f *fakeEnv) MaxEpisodeSteps() int      { return f.maxSteps }
func (f *fakeEnv) Seed(uint64)               {}

func (f *fakeEnv) SampleAction() *mat.VecDense {
	return mat.NewVecDense(1, []float64{sampledAction})
}

// fakeAgent records the transitions it learns from. Its saved state is
// the number of transitions it has learned from.
type fakeAgent struct {
	learnErr error // Returned by Learn on transition failAt
	failAt   int

	selects     int
	transitions []ts.Transition
	loaded      int
	loads       int
}

func (f *fakeAgent) SelectAction(obs *mat.VecDense,
	training bool) (*mat.VecDense, error) {
	f.selects++
	return mat.NewVecDense(1, []float64{agentAction}), nil
}

func (f *fakeAgent) Learn(t ts.Transition) error {
	if f.learnErr != nil && len(f.transitions) == f.failAt {
		return f.learnErr
	}
	f.transitions = append(f.transitions, t)
	return nil
}

func (f *fakeAgent) Save(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(len(f.transitions))),
		0644)
}

func (f *fakeAgent) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("corrupt checkpoint: %v", err)
	}
	f.loaded = v
	f.loads++
	return nil
}

// scriptedScorer returns a fixed sequence of scores, repeating the last
// score once the sequence is exhausted
type scriptedScorer struct {
	scores []float64
	err    error // Returned on call errAt if not nil
	errAt  int
	calls  int
}

func (s *scriptedScorer) Evaluate(agent.Agent) (float64, error) {
	defer func() { s.calls++ }()
	if s.err != nil && s.calls == s.errAt {
		return 0, s.err
	}
	if s.calls >= len(s.scores) {
		return s.scores[len(s.scores)-1], nil
	}
	return s.scores[s.calls], nil
}
