// Package normalizer implements observation normalizers
package normalizer

import "gonum.org/v1/gonum/mat"

// Normalizer transforms observations before they are given to an agent.
//
// Normalize transforms an observation seen during training and may
// update the Normalizer's statistics. Transform applies the current
// transformation without changing any statistics, so that evaluation
// is deterministic. Both methods always return a newly allocated
// vector and never modify their argument, so an observation produced
// by an environment is never normalized twice.
type Normalizer interface {
	Normalize(obs mat.Vector) *mat.VecDense
	Transform(obs mat.Vector) *mat.VecDense
}

// Identity is a Normalizer that does not change observations
type Identity struct{}

// NewIdentity returns a new Identity normalizer
func NewIdentity() Identity {
	return Identity{}
}

// Normalize returns a copy of obs
func (Identity) Normalize(obs mat.Vector) *mat.VecDense {
	return mat.VecDenseCopyOf(obs)
}

// Transform returns a copy of obs
func (Identity) Transform(obs mat.Vector) *mat.VecDense {
	return mat.VecDenseCopyOf(obs)
}
