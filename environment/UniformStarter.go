package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a box
type UniformStarter struct {
	bounds []r1.Interval
	rand   *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling starting
// states from bounds
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return &UniformStarter{bounds, rand}
}

// Start returns a starting state
func (u *UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(len(u.bounds), u.rand.Rand(nil))
}

// Seed reseeds the starting state distribution
func (u *UniformStarter) Seed(seed uint64) {
	u.rand = distmv.NewUniform(u.bounds, rand.NewSource(seed))
}
