package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformSampler samples actions uniformly from the box described by
// an action Spec. Environments embed a UniformSampler to implement
// SampleAction.
type UniformSampler struct {
	spec Spec
	rand *distmv.Uniform
}

// NewUniformSampler returns a new UniformSampler over the bounds of
// spec
func NewUniformSampler(spec Spec, seed uint64) *UniformSampler {
	return &UniformSampler{
		spec: spec,
		rand: distmv.NewUniform(spec.Bounds(), rand.NewSource(seed)),
	}
}

// SampleAction returns an action drawn uniformly from the action space
func (u *UniformSampler) SampleAction() *mat.VecDense {
	return mat.NewVecDense(u.spec.Len(), u.rand.Rand(nil))
}

// SeedSampler reseeds the action sampler
func (u *UniformSampler) SeedSampler(seed uint64) {
	u.rand = distmv.NewUniform(u.spec.Bounds(), rand.NewSource(seed))
}
