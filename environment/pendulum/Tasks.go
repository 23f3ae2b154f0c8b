package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/utils/floatutils"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. Rewards are the negative cost
//
//	-(θ² + 0.1θ̇² + 0.001u²)
//
// of the state the action was taken in, with θ wrapped to [-π, π). The
// best achievable reward is 0, reached with the pendulum upright, at
// rest, and no torque applied.
type SwingUp struct {
	environment.Starter
	environment.StepLimit
}

// NewSwingUp creates and returns a new SwingUp task
func NewSwingUp(s environment.Starter, maxSteps int) *SwingUp {
	return &SwingUp{s, environment.NewStepLimit(maxSteps)}
}

// GetReward returns the reward for taking action in state. The state
// arguments are the underlying (θ, θ̇) states of the pendulum.
func (s *SwingUp) GetReward(state, action, _ mat.Vector) float64 {
	th := floatutils.WrapAngle(state.AtVec(0))
	thdot := state.AtVec(1)
	u := action.AtVec(0)

	return -(th*th + 0.1*thdot*thdot + 0.001*u*u)
}

// Min returns the minimum possible reward
func (s *SwingUp) Min() float64 {
	return -(math.Pi*math.Pi + 0.1*SpeedBound*SpeedBound +
		0.001*TorqueBound*TorqueBound)
}

// Max returns the maximum possible reward
func (s *SwingUp) Max() float64 {
	return 0.0
}
