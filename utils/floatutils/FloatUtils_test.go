package floatutils

import (
	"math"
	"testing"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{0.5, -1, 1, 0.5},
		{3, -1, 1, 1},
		{-3, -1, 1, -1},
		{math.Inf(1), -20, 2, 2},
		{math.Inf(-1), -20, 2, -20},
	}

	for _, test := range tests {
		if got := Clip(test.value, test.min, test.max); got != test.want {
			t.Errorf("clip(%v, %v, %v): \n\twant(%v) \n\thave(%v)",
				test.value, test.min, test.max, test.want, got)
		}
	}
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		th, want float64
	}{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{4 * math.Pi, 0},
	}

	for _, test := range tests {
		got := WrapAngle(test.th)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("wrapAngle(%v): \n\twant(%v) \n\thave(%v)", test.th,
				test.want, got)
		}
	}
}

func TestAllFinite(t *testing.T) {
	if !AllFinite(1, -2, 0) {
		t.Error("allFinite: finite values reported as non-finite")
	}
	if AllFinite(1, math.NaN()) {
		t.Error("allFinite: NaN reported as finite")
	}
	if AllFinite(math.Inf(-1)) {
		t.Error("allFinite: -Inf reported as finite")
	}
}
