package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// validateGain returns an error if the gain of a variance scaling
// initializer is not positive
func validateGain(t Type, gain float64) error {
	if gain <= 0 {
		return fmt.Errorf("validate: %v: gain must be positive but got %v",
			t, gain)
	}
	return nil
}

// GlorotUConfig configures the Glorot uniform initialization algorithm
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

func (g GlorotUConfig) Type() Type        { return GlorotU }
func (g GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }
func (g GlorotUConfig) Validate() error   { return validateGain(GlorotU, g.Gain) }

// GlorotNConfig configures the Glorot normal initialization algorithm
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

func (g GlorotNConfig) Type() Type        { return GlorotN }
func (g GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }
func (g GlorotNConfig) Validate() error   { return validateGain(GlorotN, g.Gain) }

// HeUConfig configures the He uniform initialization algorithm
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

func (h HeUConfig) Type() Type        { return HeU }
func (h HeUConfig) Create() G.InitWFn { return G.HeU(h.Gain) }
func (h HeUConfig) Validate() error   { return validateGain(HeU, h.Gain) }

// HeNConfig configures the He normal initialization algorithm
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeNConfig{Gain: gain})
}

func (h HeNConfig) Type() Type        { return HeN }
func (h HeNConfig) Create() G.InitWFn { return G.HeN(h.Gain) }
func (h HeNConfig) Validate() error   { return validateGain(HeN, h.Gain) }
