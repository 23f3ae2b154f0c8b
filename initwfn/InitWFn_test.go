package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"gorgonia.org/tensor"
)

func TestJSONRoundTrip(t *testing.T) {
	constructors := []func() (*InitWFn, error){
		func() (*InitWFn, error) { return NewGlorotU(1.0) },
		func() (*InitWFn, error) { return NewHeN(2.0) },
		func() (*InitWFn, error) { return NewZeroes() },
		func() (*InitWFn, error) { return NewConstant(0.5) },
		func() (*InitWFn, error) { return NewUniform(-0.1, 0.1) },
		func() (*InitWFn, error) { return NewGaussian(0, 0.01) },
		func() (*InitWFn, error) { return NewFanIn() },
	}

	for _, construct := range constructors {
		init, err := construct()
		if err != nil {
			t.Fatalf("construct: %v", err)
		}

		data, err := json.Marshal(init)
		if err != nil {
			t.Fatalf("marshal %v: %v", init.Type, err)
		}

		var got InitWFn
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %v: %v", init.Type, err)
		}
		if got.Type != init.Type || got.Config != init.Config {
			t.Errorf("unmarshal: \n\twant(%v) \n\thave(%v)", init, &got)
		}
		if got.InitWFn() == nil {
			t.Errorf("unmarshal %v: initializer was not created", init.Type)
		}
	}
}

func TestInvalidConfigs(t *testing.T) {
	if _, err := NewGlorotU(0); err == nil {
		t.Error("newGlorotU: expected error for zero gain")
	}
	if _, err := NewUniform(1, -1); err == nil {
		t.Error("newUniform: expected error for reversed bounds")
	}

	var i InitWFn
	if err := json.Unmarshal([]byte(`{"Type": "Xavier"}`), &i); err == nil {
		t.Error("unmarshal: expected error for unknown initializer")
	}
}

func TestFanInBounds(t *testing.T) {
	init, err := NewFanIn()
	if err != nil {
		t.Fatalf("newFanIn: %v", err)
	}

	values := init.InitWFn()(tensor.Float64, 16, 4).([]float64)
	if len(values) != 64 {
		t.Fatalf("fanIn: \n\twant(64 values) \n\thave(%v)", len(values))
	}
	bound := 1.0 / math.Sqrt(16)
	for _, v := range values {
		if math.Abs(v) > bound {
			t.Errorf("fanIn: value %v exceeds bound %v", v, bound)
		}
	}
}
