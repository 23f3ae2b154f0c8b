package normalizer

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestIdentityCopies(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 2})
	out := NewIdentity().Normalize(obs)

	if !mat.Equal(obs, out) {
		t.Errorf("normalize: \n\twant(%v) \n\thave(%v)",
			mat.Formatted(obs.T()), mat.Formatted(out.T()))
	}
	out.SetVec(0, 100)
	if obs.AtVec(0) != 1 {
		t.Error("normalize: identity should return a copy")
	}
}

func TestRunningStatistics(t *testing.T) {
	r := NewRunning(2)
	data := [][]float64{{1, 10}, {2, 20}, {3, 30}, {4, 40}}
	for _, d := range data {
		r.Normalize(mat.NewVecDense(2, d))
	}

	if r.Count() != 4 {
		t.Errorf("count: \n\twant(4) \n\thave(%v)", r.Count())
	}
	wantMean := []float64{2.5, 25}
	wantVar := []float64{1.25, 125}
	mean, variance := r.Mean(), r.Variance()
	for i := range wantMean {
		if math.Abs(mean[i]-wantMean[i]) > 1e-12 {
			t.Errorf("mean: \n\twant(%v) \n\thave(%v)", wantMean, mean)
		}
		if math.Abs(variance[i]-wantVar[i]) > 1e-9 {
			t.Errorf("variance: \n\twant(%v) \n\thave(%v)", wantVar, variance)
		}
	}
}

func TestRunningTransformIsFrozen(t *testing.T) {
	r := NewRunning(1)
	for _, x := range []float64{-1, 0, 1} {
		r.Normalize(mat.NewVecDense(1, []float64{x}))
	}

	obs := mat.NewVecDense(1, []float64{5})
	first := r.Transform(obs)
	second := r.Transform(obs)
	if !mat.Equal(first, second) {
		t.Error("transform: repeated transforms should be identical")
	}
	if r.Count() != 3 {
		t.Errorf("transform: statistics changed \n\twant(3) \n\thave(%v)",
			r.Count())
	}
	if obs.AtVec(0) != 5 {
		t.Error("transform: argument was modified")
	}
}

func TestRunningClip(t *testing.T) {
	r := NewRunningWith(1, 1e-8, 2)
	for _, x := range []float64{-1, 1} {
		r.Normalize(mat.NewVecDense(1, []float64{x}))
	}

	out := r.Transform(mat.NewVecDense(1, []float64{1000}))
	if out.AtVec(0) != 2 {
		t.Errorf("transform: \n\twant(2) \n\thave(%v)", out.AtVec(0))
	}
}

func TestRunningSaveLoad(t *testing.T) {
	r := NewRunning(2)
	for _, d := range [][]float64{{1, -1}, {3, 5}, {-2, 0}} {
		r.Normalize(mat.NewVecDense(2, d))
	}

	path := filepath.Join(t.TempDir(), "norm.bin")
	if err := r.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := NewRunning(2)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	obs := mat.NewVecDense(2, []float64{0.5, 2})
	if !mat.Equal(r.Transform(obs), loaded.Transform(obs)) {
		t.Error("load: loaded normalizer transforms differently")
	}

	if err := NewRunning(3).Load(path); err == nil {
		t.Error("load: expected error for mismatched dimensions")
	}
}
