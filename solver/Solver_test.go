package solver

import (
	"encoding/json"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	adam, err := NewDefaultAdam(0.01, 1)
	if err != nil {
		t.Fatalf("newDefaultAdam: %v", err)
	}

	data, err := json.Marshal(adam)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var s Solver
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if s.Type != Adam {
		t.Errorf("unmarshal: invalid type \n\twant(%v) \n\thave(%v)", Adam,
			s.Type)
	}
	if s.Config != adam.Config {
		t.Errorf("unmarshal: invalid config \n\twant(%v) \n\thave(%v)",
			adam.Config, s.Config)
	}
	if s.Solver == nil {
		t.Error("unmarshal: gorgonia solver was not created")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown type", `{"Type": "SGDR", "Config": {"StepSize": 0.1}}`},
		{"missing type", `{"Config": {"StepSize": 0.1, "Batch": 1}}`},
		{"zero step size", `{"Type": "Vanilla", "Config": {"Batch": 1}}`},
		{"bad rho", `{"Type": "RMSProp", "Config": {"StepSize": 0.1, ` +
			`"Batch": 1, "Rho": 1.5}}`},
	}

	for _, test := range tests {
		var s Solver
		if err := json.Unmarshal([]byte(test.data), &s); err == nil {
			t.Errorf("%v: expected unmarshal error", test.name)
		}
	}
}

func TestClone(t *testing.T) {
	s, err := NewVanilla(0.1, 1, -1)
	if err != nil {
		t.Fatalf("newVanilla: %v", err)
	}

	c := s.Clone()
	if c.Config != s.Config || c.Type != s.Type {
		t.Error("clone: configuration not preserved")
	}
	if c.Solver == s.Solver {
		t.Error("clone: gorgonia solver should not be shared")
	}
}
