// Package initwfn wraps Gorgonia weight initializers so that they can
// be described in JSON configuration files and rebuilt from them.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
	FanIn    Type = "FanIn"
)

// configTypes maps each InitWFn Type to its concrete Config type
var configTypes = map[Type]reflect.Type{
	GlorotU:  reflect.TypeOf(GlorotUConfig{}),
	GlorotN:  reflect.TypeOf(GlorotNConfig{}),
	HeU:      reflect.TypeOf(HeUConfig{}),
	HeN:      reflect.TypeOf(HeNConfig{}),
	Zeroes:   reflect.TypeOf(ZeroesConfig{}),
	Ones:     reflect.TypeOf(OnesConfig{}),
	Constant: reflect.TypeOf(ConstantConfig{}),
	Uniform:  reflect.TypeOf(UniformConfig{}),
	Gaussian: reflect.TypeOf(GaussianConfig{}),
	FanIn:    reflect.TypeOf(FanInConfig{}),
}

// InitWFn wraps Gorgonia InitWFn so that they can be JSON marshalled and
// unmarshalled. The JSON representation is
//
//	{"Type": "GlorotU", "Config": {"Gain": 1}}
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newInitWFn: %w", err)
	}
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}

	var typeName Type
	if err := json.Unmarshal(m["Type"], &typeName); err != nil {
		return fmt.Errorf("unmarshalJSON: invalid initializer type: %v",
			err)
	}
	ty, found := configTypes[typeName]
	if !found {
		return fmt.Errorf("unmarshalJSON: no such initializer %q", typeName)
	}

	value := reflect.New(ty)
	if raw, ok := m["Config"]; ok {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: %w", err)
		}
	}
	config := value.Elem().Interface().(Config)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}

	i.Type = typeName
	i.Config = config
	i.initWFn = config.Create()

	return nil
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type

	// Validate returns an error if the configuration is illegal
	Validate() error
}
