// Package solver wraps Gorgonia Solvers so that they can be described
// in JSON configuration files and rebuilt from them.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// configTypes maps each solver Type to its concrete Config type
var configTypes = map[Type]reflect.Type{
	Vanilla: reflect.TypeOf(VanillaConfig{}),
	Adam:    reflect.TypeOf(AdamConfig{}),
	RMSProp: reflect.TypeOf(RMSPropConfig{}),
}

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled. The JSON representation is
//
//	{"Type": "Adam", "Config": {"StepSize": 0.001, ...}}
//
// A Solver holds optimiser state (e.g. Adam moments) for the nodes it
// has stepped and so should be used with a single set of learnables.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSolver: %w", err)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// Clone returns a new Solver with the same configuration as s but with
// fresh optimiser state
func (s *Solver) Clone() *Solver {
	return &Solver{Solver: s.Config.Create(), Type: s.Type, Config: s.Config}
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}

	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJSONField,
	valueJSONField string) (Config, Type, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	var typeName Type
	if err := json.Unmarshal(m[typeJSONField], &typeName); err != nil {
		return nil, "", fmt.Errorf("unmarshalConfig: invalid solver "+
			"type: %v", err)
	}

	ty, found := configTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: no such solver %q",
			typeName)
	}

	value := reflect.New(ty)
	if raw, ok := m[valueJSONField]; ok {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, "", err
		}
	}

	return value.Elem().Interface().(Config), typeName, nil
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// Validate returns an error if the hyperparameters are illegal
	Validate() error
}

// validateStepSize checks the step size and batch size common to all
// solvers
func validateStepSize(stepSize float64, batch int) error {
	if stepSize <= 0 {
		return fmt.Errorf("step size must be positive but got %v",
			stepSize)
	}
	if batch < 1 {
		return fmt.Errorf("batch size must be positive but got %v", batch)
	}
	return nil
}
