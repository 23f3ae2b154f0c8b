package timestep

import "testing"

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		done     bool
		steps    int
		maxSteps int
		want     bool
	}{
		{"not done", false, 2, 3, false},
		{"terminated under cap", true, 2, 3, true},
		{"truncated at cap", true, 3, 3, false},
		{"truncated past cap", true, 4, 3, false},
		{"unbounded episode", true, 1000, 0, true},
		{"unbounded not done", false, 1000, -1, false},
	}

	for _, test := range tests {
		got := IsTerminal(test.done, test.steps, test.maxSteps)
		if got != test.want {
			t.Errorf("%v: IsTerminal(%v, %v, %v) \n\twant(%v) \n\thave(%v)",
				test.name, test.done, test.steps, test.maxSteps, test.want, got)
		}
	}
}

func TestTerminalFloat(t *testing.T) {
	if f := (Transition{Terminal: true}).TerminalFloat(); f != 1.0 {
		t.Errorf("terminalFloat: \n\twant(1) \n\thave(%v)", f)
	}
	if f := (Transition{}).TerminalFloat(); f != 0.0 {
		t.Errorf("terminalFloat: \n\twant(0) \n\thave(%v)", f)
	}
}
