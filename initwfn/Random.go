package initwfn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// UniformConfig implements a configuration of a weight initializer that
// draws weights from a uniform distribution
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	return newInitWFn(UniformConfig{Low: low, High: high})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (u UniformConfig) Create() G.InitWFn {
	return G.Uniform(u.Low, u.High)
}

// Validate returns an error if the bounds are out of order
func (u UniformConfig) Validate() error {
	if u.Low > u.High {
		return fmt.Errorf("validate: uniform: low %v > high %v", u.Low,
			u.High)
	}
	return nil
}

// GaussianConfig implements a configuration of a weight initializer
// that draws weights from a gaussian distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	return newInitWFn(GaussianConfig{Mean: mean, StdDev: stddev})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GaussianConfig) Type() Type {
	return Gaussian
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GaussianConfig) Create() G.InitWFn {
	return G.Gaussian(g.Mean, g.StdDev)
}

// Validate returns an error if the standard deviation is negative
func (g GaussianConfig) Validate() error {
	if g.StdDev < 0 {
		return fmt.Errorf("validate: gaussian: negative standard "+
			"deviation %v", g.StdDev)
	}
	return nil
}

// FanInConfig configures an initializer that draws weights uniformly
// from ±1/sqrt(fan_in), where fan_in is the first dimension of the
// weight shape. This is the default initialization of linear layers
// in most deep learning frameworks.
type FanInConfig struct{}

// NewFanIn returns a new fan-in scaled uniform weight initializer
func NewFanIn() (*InitWFn, error) {
	return newInitWFn(FanInConfig{})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (f FanInConfig) Type() Type {
	return FanIn
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (f FanInConfig) Create() G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn := 1
		if len(s) > 0 && s[0] > 0 {
			fanIn = s[0]
		}
		bound := 1.0 / math.Sqrt(float64(fanIn))
		return G.Uniform(-bound, bound)(dt, s...)
	}
}

// Validate always succeeds
func (f FanInConfig) Validate() error { return nil }
