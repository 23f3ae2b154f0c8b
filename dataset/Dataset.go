// Package dataset generates and stores datasets of expert trajectories
package dataset

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/expertgen/agent"
	env "github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/normalizer"
	ts "github.com/samuelfneumann/expertgen/timestep"
)

// Keys of the arrays in an exported Dataset
const (
	Observations     = "observations"
	Actions          = "actions"
	Rewards          = "rewards"
	NextObservations = "next_observations"
	Terminals        = "terminals"
	Timeouts         = "timeouts"
)

// Extension is the file extension of saved datasets
const Extension = ".gob.gz"

// Dataset stores transitions as parallel arrays: index i of each array
// describes transition i. Observations are stored as returned by the
// environment, before normalization.
//
// Terminals[i] is true if transition i ended its episode in a true
// terminal state. Timeouts[i] is true if transition i ended its
// episode because the environment's step limit was reached.
type Dataset struct {
	Observations     [][]float64
	Actions          [][]float64
	Rewards          []float64
	NextObservations [][]float64
	Terminals        []bool
	Timeouts         []bool
}

// Len returns the number of transitions in the Dataset
func (d *Dataset) Len() int {
	return len(d.Rewards)
}

// add adds a single transition to the Dataset
func (d *Dataset) add(obs, action, nextObs mat.Vector, reward float64,
	terminal, timeout bool) {
	d.Observations = append(d.Observations, vecData(obs))
	d.Actions = append(d.Actions, vecData(action))
	d.Rewards = append(d.Rewards, reward)
	d.NextObservations = append(d.NextObservations, vecData(nextObs))
	d.Terminals = append(d.Terminals, terminal)
	d.Timeouts = append(d.Timeouts, timeout)
}

// Generate runs agent a deterministically in environment e for exactly
// steps transitions, resetting e whenever an episode ends, and returns
// the Dataset of generated transitions. The agent sees observations
// transformed by norm, which is not updated. A nil norm leaves
// observations unchanged.
func Generate(a agent.Agent, e env.Environment, norm normalizer.Normalizer,
	steps int) (*Dataset, error) {
	if steps < 0 {
		return nil, fmt.Errorf("generate: steps must be non-negative but "+
			"got %v", steps)
	}
	if norm == nil {
		norm = normalizer.NewIdentity()
	}

	d := &Dataset{
		Observations:     make([][]float64, 0, steps),
		Actions:          make([][]float64, 0, steps),
		Rewards:          make([]float64, 0, steps),
		NextObservations: make([][]float64, 0, steps),
		Terminals:        make([]bool, 0, steps),
		Timeouts:         make([]bool, 0, steps),
	}
	if steps == 0 {
		return d, nil
	}

	step, err := e.Reset()
	if err != nil {
		return nil, fmt.Errorf("generate: could not reset environment: %w",
			err)
	}

	episodeSteps := 0
	for t := 0; t < steps; t++ {
		episodeSteps++
		action, err := a.SelectAction(norm.Transform(step.Observation), false)
		if err != nil {
			return nil, fmt.Errorf("generate: step %v: %w", t, err)
		}

		next, done, err := e.Step(action)
		if err != nil {
			return nil, fmt.Errorf("generate: step %v: %w", t, err)
		}

		terminal := ts.IsTerminal(done, episodeSteps, e.MaxEpisodeSteps())
		d.add(step.Observation, action, next.Observation, next.Reward,
			terminal, done && !terminal)

		step = next
		if done {
			step, err = e.Reset()
			if err != nil {
				return nil, fmt.Errorf("generate: step %v: could not reset "+
					"environment: %w", t, err)
			}
			episodeSteps = 0
		}
	}

	return d, nil
}

// Export returns the Dataset as a map from array keys to arrays
func (d *Dataset) Export() map[string]interface{} {
	return map[string]interface{}{
		Observations:     d.Observations,
		Actions:          d.Actions,
		Rewards:          d.Rewards,
		NextObservations: d.NextObservations,
		Terminals:        d.Terminals,
		Timeouts:         d.Timeouts,
	}
}

// Save saves the Dataset gzip-compressed to a file at path
func (d *Dataset) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}

	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(d); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("save: could not encode dataset: %v", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("save: could not compress dataset: %v", err)
	}
	return f.Close()
}

// Load loads a Dataset saved with Save from the file at path
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open file: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("load: could not decompress dataset: %v", err)
	}
	defer zr.Close()

	d := &Dataset{}
	if err := gob.NewDecoder(zr).Decode(d); err != nil {
		return nil, fmt.Errorf("load: could not decode dataset: %v", err)
	}
	return d, nil
}

// FileName returns the name of the file which stores the expert
// dataset of an environment with id envName, which must be of the form
// <name>-<version>. For example, Pendulum-v0 gives
// pendulum_expert-v0.gob.gz.
func FileName(envName string) (string, error) {
	i := strings.LastIndex(envName, "-")
	if i <= 0 || i == len(envName)-1 {
		return "", fmt.Errorf("fileName: environment id %q is not of the "+
			"form <name>-<version>", envName)
	}

	name := strings.ToLower(envName[:i])
	version := strings.ToLower(envName[i+1:])
	return name + "_expert-" + version + Extension, nil
}

// vecData returns a copy of the components of v
func vecData(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
