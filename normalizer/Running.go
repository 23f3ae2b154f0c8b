package normalizer

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/utils/floatutils"
)

// Defaults for Running normalizers
const (
	DefaultEpsilon float64 = 1e-8
	DefaultClip    float64 = 10.0
)

// Running normalizes observations to zero mean and unit variance
// per component, using running estimates of the mean and variance of
// all observations given to Normalize. Normalized components are
// clipped to [-Clip, Clip].
type Running struct {
	dims    int
	epsilon float64
	clip    float64

	count float64
	mean  []float64
	m2    []float64 // Sum of squared differences from the mean
}

// NewRunning returns a new Running normalizer for observations with
// dims components
func NewRunning(dims int) *Running {
	return NewRunningWith(dims, DefaultEpsilon, DefaultClip)
}

// NewRunningWith returns a new Running normalizer with the given
// variance offset and clipping bound
func NewRunningWith(dims int, epsilon, clip float64) *Running {
	if dims < 1 {
		panic(fmt.Sprintf("newRunning: dims must be positive but got %v",
			dims))
	}
	return &Running{
		dims:    dims,
		epsilon: epsilon,
		clip:    clip,
		mean:    make([]float64, dims),
		m2:      make([]float64, dims),
	}
}

// Count returns the number of observations seen
func (r *Running) Count() int {
	return int(r.count)
}

// Mean returns a copy of the running mean
func (r *Running) Mean() []float64 {
	return append([]float64(nil), r.mean...)
}

// Variance returns the running population variance
func (r *Running) Variance() []float64 {
	v := make([]float64, r.dims)
	if r.count > 0 {
		floats.ScaleTo(v, 1/r.count, r.m2)
	}
	return v
}

// Normalize updates the running statistics with obs, then returns the
// normalized observation
func (r *Running) Normalize(obs mat.Vector) *mat.VecDense {
	r.update(obs)
	return r.Transform(obs)
}

// update performs Welford's update of the running statistics
func (r *Running) update(obs mat.Vector) {
	r.checkDims(obs)

	r.count++
	for i := 0; i < r.dims; i++ {
		x := obs.AtVec(i)
		delta := x - r.mean[i]
		r.mean[i] += delta / r.count
		r.m2[i] += delta * (x - r.mean[i])
	}
}

// Transform returns the normalized observation without updating the
// running statistics. Before any statistics are gathered, Transform
// returns a copy of obs.
func (r *Running) Transform(obs mat.Vector) *mat.VecDense {
	r.checkDims(obs)

	out := mat.VecDenseCopyOf(obs)
	if r.count == 0 {
		return out
	}

	variance := r.Variance()
	for i := 0; i < r.dims; i++ {
		z := (out.AtVec(i) - r.mean[i]) / math.Sqrt(variance[i]+r.epsilon)
		out.SetVec(i, floatutils.Clip(z, -r.clip, r.clip))
	}
	return out
}

// checkDims panics if obs has the wrong number of components
func (r *Running) checkDims(obs mat.Vector) {
	if obs.Len() != r.dims {
		panic(fmt.Sprintf("normalizer: observation has %v components but "+
			"want %v", obs.Len(), r.dims))
	}
}

// runningState is the serialized form of a Running normalizer
type runningState struct {
	Dims    int
	Epsilon float64
	Clip    float64
	Count   float64
	Mean    []float64
	M2      []float64
}

// Save saves the normalizer statistics to a file at path
func (r *Running) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}

	state := runningState{r.dims, r.epsilon, r.clip, r.count, r.mean, r.m2}
	if err := gob.NewEncoder(f).Encode(state); err != nil {
		f.Close()
		return fmt.Errorf("save: could not encode normalizer: %v", err)
	}
	return f.Close()
}

// Load loads normalizer statistics from the file at path
func (r *Running) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: could not open file: %w", err)
	}
	defer f.Close()

	var state runningState
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return fmt.Errorf("load: could not decode normalizer: %v", err)
	}
	if state.Dims != r.dims || len(state.Mean) != r.dims ||
		len(state.M2) != r.dims {
		return fmt.Errorf("load: normalizer has %v dims but want %v",
			state.Dims, r.dims)
	}

	r.epsilon, r.clip, r.count = state.Epsilon, state.Clip, state.Count
	r.mean, r.m2 = state.Mean, state.M2
	return nil
}
