// Package config implements the configuration of a training run
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/samuelfneumann/expertgen/experiment"
)

// CPU is the only device available for training
const CPU = "cpu"

// Environment variables which override configuration values
const (
	EnvResultDir = "EXPERT_RESULT_DIR"
	EnvDataDir   = "EXPERT_DATA_DIR"
	EnvDevice    = "EXPERT_DEVICE"
	EnvSeed      = "EXPERT_SEED"
)

// Files written to the experiment directory
const (
	ModelFile      = "model.bin"
	NormalizerExt  = ".norm"
	ConfigFile     = "config.json"
	LogFile        = "log.log"
	ScalarsFile    = "scalars.bin"
	CurveFile      = "curve.html"
	DefaultAlgo    = "GaussianAC"
	DefaultEnvName = "Pendulum-v0"
)

// Config is the configuration of a run, which trains an agent and then
// generates a dataset with it
type Config struct {
	EnvName         string          `json:"env_name"`
	Seed            uint64          `json:"seed"`
	MaxTimesteps    int             `json:"max_timesteps"`
	EvalFreq        int             `json:"eval_freq"`
	StartTimesteps  int             `json:"start_timesteps"`
	NormState       bool            `json:"norm_state"`
	Device          string          `json:"device"`
	AlgoName        string          `json:"algo_name"`
	EvalEpisodes    int             `json:"eval_episodes"`
	MaxEpisodeSteps int             `json:"max_episode_steps"`
	DatasetSteps    int             `json:"dataset_steps"`
	ResultDir       string          `json:"result_dir"`
	DataDir         string          `json:"data_dir"`
	Agent           json.RawMessage `json:"agent,omitempty"`

	// RunID identifies a single run and is generated by Record
	RunID string `json:"run_id,omitempty"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		EnvName:         DefaultEnvName,
		Seed:            0,
		MaxTimesteps:    1_000_000,
		EvalFreq:        5000,
		StartTimesteps:  10_000,
		NormState:       false,
		Device:          CPU,
		AlgoName:        DefaultAlgo,
		EvalEpisodes:    10,
		MaxEpisodeSteps: 0,
		DatasetSteps:    1_000_000,
		ResultDir:       "out",
		DataDir:         filepath.Join("data", "expert_data"),
	}
}

// Load reads a configuration from a JSON file. Values missing from the
// file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: could not parse %v: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides configuration values with those set in the
// environment
func (c *Config) ApplyEnv() error {
	if dir, ok := os.LookupEnv(EnvResultDir); ok {
		c.ResultDir = dir
	}
	if dir, ok := os.LookupEnv(EnvDataDir); ok {
		c.DataDir = dir
	}
	if device, ok := os.LookupEnv(EnvDevice); ok {
		c.Device = device
	}
	if seed, ok := os.LookupEnv(EnvSeed); ok {
		s, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("applyEnv: invalid %v: %w", EnvSeed, err)
		}
		c.Seed = s
	}
	return nil
}

// Validate returns an error if the configuration is illegal
func (c Config) Validate() error {
	if c.EnvName == "" {
		return fmt.Errorf("validate: env_name must be set")
	}
	if c.AlgoName == "" {
		return fmt.Errorf("validate: algo_name must be set")
	}
	if err := c.Experiment().Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.EvalEpisodes < 1 {
		return fmt.Errorf("validate: eval_episodes must be positive but "+
			"got %v", c.EvalEpisodes)
	}
	if c.DatasetSteps < 0 {
		return fmt.Errorf("validate: dataset_steps must be non-negative "+
			"but got %v", c.DatasetSteps)
	}
	if c.ResultDir == "" || c.DataDir == "" {
		return fmt.Errorf("validate: result_dir and data_dir must be set")
	}
	if c.Device == "" {
		return fmt.Errorf("validate: device must be set")
	}
	return nil
}

// ResolveDevice falls back to the CPU if another device is
// configured, logging the fallback to logger
func (c *Config) ResolveDevice(logger *log.Logger) {
	if c.Device != CPU {
		logger.Printf("Device %q is not available, using %v", c.Device, CPU)
		c.Device = CPU
	}
}

// Experiment returns the configuration of the online experiment
func (c Config) Experiment() experiment.Config {
	return experiment.Config{
		MaxTimesteps:   c.MaxTimesteps,
		EvalFreq:       c.EvalFreq,
		StartTimesteps: c.StartTimesteps,
	}
}

// ExperimentName returns the name of the run, <algo>_<env>_<seed>
func (c Config) ExperimentName() string {
	return fmt.Sprintf("%v_%v_%v", c.AlgoName, c.EnvName, c.Seed)
}

// ExperimentDir returns the directory in which run files are stored
func (c Config) ExperimentDir() string {
	return filepath.Join(c.ResultDir, c.ExperimentName())
}

// Record writes the configuration to a JSON file at path, generating a
// run id first if the configuration has none
func (c *Config) Record(path string) error {
	if c.RunID == "" {
		c.RunID = uuid.New().String()
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("record: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("record: %v", err)
	}
	return nil
}
