package environment

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestUniformSamplerBounds(t *testing.T) {
	low := mat.NewVecDense(2, []float64{-2, 0})
	high := mat.NewVecDense(2, []float64{2, 0.5})
	spec := NewSpec(mat.NewVecDense(2, nil), Action, low, high, Continuous)

	s := NewUniformSampler(spec, 12)
	for i := 0; i < 1000; i++ {
		a := s.SampleAction()
		if a.Len() != 2 {
			t.Fatalf("sampleAction: invalid action length \n\twant(2) "+
				"\n\thave(%v)", a.Len())
		}
		for j := 0; j < a.Len(); j++ {
			if a.AtVec(j) < low.AtVec(j) || a.AtVec(j) > high.AtVec(j) {
				t.Fatalf("sampleAction: action %v out of bounds [%v, %v]",
					a.AtVec(j), low.AtVec(j), high.AtVec(j))
			}
		}
	}
}

func TestUniformSamplerSeed(t *testing.T) {
	low := mat.NewVecDense(1, []float64{-1})
	high := mat.NewVecDense(1, []float64{1})
	spec := NewSpec(mat.NewVecDense(1, nil), Action, low, high, Continuous)

	s1 := NewUniformSampler(spec, 3)
	s2 := NewUniformSampler(spec, 99)
	s2.SeedSampler(3)

	for i := 0; i < 10; i++ {
		a1, a2 := s1.SampleAction(), s2.SampleAction()
		if !mat.Equal(a1, a2) {
			t.Fatalf("seedSampler: samplers with the same seed diverged "+
				"at sample %v: %v != %v", i, a1.AtVec(0), a2.AtVec(0))
		}
	}
}
