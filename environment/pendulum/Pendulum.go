// Package pendulum implements the continuous-action pendulum swing-up
// classic control environment
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/timestep"
	"github.com/samuelfneumann/expertgen/utils/floatutils"
)

// default physical constants
const (
	SpeedBound  float64 = 8.0 // +/- Speed bounds
	TorqueBound float64 = 2.0 // +/- Torque bounds

	// +/- bounds on the angular velocity of starting states
	StartSpeedBound float64 = 1.0

	dt      float64 = 0.05
	Gravity float64 = 10.0
	Mass    float64 = 1.0
	Length  float64 = 1.0

	ActionDims      int = 1
	ObservationDims int = 3
	stateDims       int = 2

	// DefaultEpisodeSteps is the episode step limit used when none is
	// given
	DefaultEpisodeSteps int = 200
)

// Pendulum implements the classic control environment Pendulum. In this
// environment, a pendulum is attached to a fixed base. An agent can
// swing the pendulum back and forth, but the swinging torque is
// underpowered. In order to be able to swing the pendulum straight up,
// it must first be rocked back and forth, using the momentum to
// gradually climb higher until the pendulum can point straight up.
//
// The underlying state is the angle of the pendulum from the positive
// y-axis and its angular velocity. Observations are the cosine and sine
// of the angle together with the angular velocity, which is clipped to
// [-SpeedBound, SpeedBound].
//
// Actions are continuous and 1-dimensional, determining the torque to
// apply to the pendulum at its fixed base. Actions outside of
// [-TorqueBound, TorqueBound] are clipped to stay within these bounds.
//
// Episodes never terminate, they are only ever truncated at the
// episode step limit.
//
// Pendulum implements the environment.Environment interface
type Pendulum struct {
	environment.Task
	*environment.UniformSampler

	state    *mat.VecDense
	lastStep timestep.TimeStep
	maxSteps int
	started  bool
}

// New creates and returns a new Pendulum environment. If maxEpisodeSteps
// is non-positive, DefaultEpisodeSteps is used.
func New(maxEpisodeSteps int, seed uint64) *Pendulum {
	if maxEpisodeSteps <= 0 {
		maxEpisodeSteps = DefaultEpisodeSteps
	}

	bounds := []r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -StartSpeedBound, Max: StartSpeedBound},
	}
	starter := environment.NewUniformStarter(bounds, seed)
	task := NewSwingUp(starter, maxEpisodeSteps)

	p := &Pendulum{
		Task:     task,
		maxSteps: maxEpisodeSteps,
	}
	p.UniformSampler = environment.NewUniformSampler(p.ActionSpec(),
		seed+1)

	return p
}

// Seed reseeds the starting state distribution and the action sampler
func (p *Pendulum) Seed(seed uint64) {
	p.Task.Seed(seed)
	p.SeedSampler(seed + 1)
}

// Reset resets the environment to some starting state and returns the
// first timestep of the new episode
func (p *Pendulum) Reset() (timestep.TimeStep, error) {
	state := p.Start()
	if state.Len() != stateDims {
		return timestep.TimeStep{}, fmt.Errorf("reset: starting state "+
			"should have %v dimensions but got %v", stateDims, state.Len())
	}
	p.state = state
	p.started = true

	p.lastStep = timestep.New(timestep.First, 0, p.observation(), 0)
	return p.lastStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (p *Pendulum) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if !p.started {
		return timestep.TimeStep{}, true, fmt.Errorf("step: environment " +
			"must be reset before stepping")
	}
	if p.lastStep.Last() {
		return timestep.TimeStep{}, true, fmt.Errorf("step: episode has " +
			"ended, environment must be reset")
	}
	if action.Len() != ActionDims {
		return timestep.TimeStep{}, true, fmt.Errorf("step: actions "+
			"should be %v-dimensional but got %v", ActionDims, action.Len())
	}

	torque := floatutils.Clip(action.AtVec(0), -TorqueBound, TorqueBound)
	if math.IsNaN(torque) {
		return timestep.TimeStep{}, true, fmt.Errorf("step: action is NaN")
	}
	clipped := mat.NewVecDense(ActionDims, []float64{torque})

	nextState := p.nextState(torque)
	reward := p.GetReward(p.state, clipped, nextState)
	p.state = nextState

	nextStep := timestep.New(timestep.Mid, reward, p.observation(),
		p.lastStep.Number+1)

	// Check if the step is the last in the episode and adjust step type
	// if necessary
	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState computes the next state of the pendulum given the torque to
// apply at its base
func (p *Pendulum) nextState(torque float64) *mat.VecDense {
	th, thdot := p.state.AtVec(0), p.state.AtVec(1)

	newthdot := thdot + (-3*Gravity/(2*Length)*math.Sin(th+math.Pi)+
		3.0/(Mass*math.Pow(Length, 2))*torque)*dt
	newth := th + newthdot*dt
	newthdot = floatutils.Clip(newthdot, -SpeedBound, SpeedBound)

	return mat.NewVecDense(stateDims, []float64{newth, newthdot})
}

// observation returns the observation of the current state
func (p *Pendulum) observation() *mat.VecDense {
	th, thdot := p.state.AtVec(0), p.state.AtVec(1)
	return mat.NewVecDense(ObservationDims, []float64{
		math.Cos(th), math.Sin(th), thdot,
	})
}

// MaxEpisodeSteps returns the episode step limit
func (p *Pendulum) MaxEpisodeSteps() int {
	return p.maxSteps
}

// ActionSpec returns the action specification of the environment
func (p *Pendulum) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{-TorqueBound})
	upperBound := mat.NewVecDense(ActionDims, []float64{TorqueBound})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Pendulum) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{-1, -1, -SpeedBound})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{1, 1, SpeedBound})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// String converts the environment to a string representation
func (p *Pendulum) String() string {
	if p.state == nil {
		return "Pendulum  |  not started"
	}
	str := "Pendulum  |  theta: %v  |  theta dot: %v"
	return fmt.Sprintf(str, p.state.AtVec(0), p.state.AtVec(1))
}
