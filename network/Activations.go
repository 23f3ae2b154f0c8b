package network

import (
	"encoding/json"
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
	tanh     activationType = "tanh"
)

// Activation represents an activation function type. An Activation can
// be added to a computational graph or applied elementwise to plain
// floats, so that the same network description can be evaluated both
// inside and outside of Gorgonia.
type Activation struct {
	activationType
	f     func(x *G.Node) (*G.Node, error)
	apply func(x float64) float64
}

// Fwd adds the forward pass of an Activation to the graph of x
func (a *Activation) Fwd(x *G.Node) (*G.Node, error) {
	return a.f(x)
}

// Apply applies the Activation to a single value
func (a *Activation) Apply(x float64) float64 {
	return a.apply(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// GobEncode implements the GobEncoder interface
func (a *Activation) GobEncode() ([]byte, error) {
	return []byte(a.activationType), nil
}

// GobDecode implements the GobDecoder interface
func (a *Activation) GobDecode(encoded []byte) error {
	act, err := ActivationByName(string(encoded))
	if err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}
	*a = *act
	return nil
}

// MarshalJSON implements the json.Marshaler interface
func (a *Activation) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a.activationType))
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (a *Activation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}
	act, err := ActivationByName(name)
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}
	*a = *act
	return nil
}

// ActivationByName returns the Activation with the given name, one of
// "relu", "identity", or "tanh"
func ActivationByName(name string) (*Activation, error) {
	switch activationType(name) {
	case relu:
		return ReLU(), nil
	case identity:
		return Identity(), nil
	case tanh:
		return TanH(), nil
	default:
		return nil, fmt.Errorf("illegal Activation type %q", name)
	}
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f: func(x *G.Node) (*G.Node, error) {
			return x, nil
		},
		apply: func(x float64) float64 { return x },
	}
}

// ReLU returns a ReLU *Activation
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f:              G.Rectify,
		apply:          func(x float64) float64 { return math.Max(x, 0) },
	}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f:              G.Tanh,
		apply:          math.Tanh,
	}
}
