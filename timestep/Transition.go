package timestep

import "gonum.org/v1/gonum/mat"

// Transition is a single (S, A, S', R, terminal) tuple that is fed to
// a learner.
//
// Terminal is not the raw episode-ending signal of the environment. An
// episode that ends because it hit the environment's step limit was
// truncated, and its last state should still be bootstrapped from.
// Use IsTerminal to compute the flag.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	NextState *mat.VecDense
	Reward    float64
	Terminal  bool
}

// NewTransition returns a new Transition
func NewTransition(state, action, nextState *mat.VecDense, reward float64,
	terminal bool) Transition {
	return Transition{
		State:     state,
		Action:    action,
		NextState: nextState,
		Reward:    reward,
		Terminal:  terminal,
	}
}

// TerminalFloat returns 1.0 if the transition is terminal and 0.0
// otherwise.
func (t Transition) TerminalFloat() float64 {
	if t.Terminal {
		return 1.0
	}
	return 0.0
}

// IsTerminal classifies an episode ending. A done signal at an episode
// length below maxEpisodeSteps is a true termination. A done signal at
// or beyond the limit is a truncation and is reported as non-terminal.
// A non-positive maxEpisodeSteps denotes an unbounded episode, in which
// case every done signal is a termination.
func IsTerminal(done bool, episodeSteps, maxEpisodeSteps int) bool {
	if !done {
		return false
	}
	if maxEpisodeSteps <= 0 {
		return true
	}
	return episodeSteps < maxEpisodeSteps
}
