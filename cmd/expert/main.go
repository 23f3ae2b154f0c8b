// Command expert trains a continuous-control agent, keeping the
// parameters that evaluated best, and uses the trained agent to
// generate an expert dataset.
package main

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/expertgen/agent"
	_ "github.com/samuelfneumann/expertgen/agent/gaussianac"
	"github.com/samuelfneumann/expertgen/config"
	"github.com/samuelfneumann/expertgen/dataset"
	env "github.com/samuelfneumann/expertgen/environment"
	"github.com/samuelfneumann/expertgen/environment/envconfig"
	"github.com/samuelfneumann/expertgen/experiment"
	"github.com/samuelfneumann/expertgen/experiment/checkpointer"
	"github.com/samuelfneumann/expertgen/normalizer"
)

func main() {
	for _, envFile := range []string{
		".env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCommand returns the expert command with all of its subcommands
func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "expert",
		Short: "Train a continuous-control agent and export an expert dataset",
	}

	rootCmd.PersistentFlags().StringP("config", "c", "",
		"JSON configuration file, defaults are used if unset")
	rootCmd.AddCommand(trainCommand(), generateCommand())
	return rootCmd
}

// run holds everything shared by the commands of a single run
type run struct {
	config  config.Config
	dir     string
	logger  *log.Logger
	logFile *os.File
	factory envconfig.Factory
	norm    normalizer.Normalizer
	best    *checkpointer.Best
}

// setup loads and validates the configuration, creates the experiment
// directory and the run's logger
func setup(cmd *cobra.Command) (*run, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	c := config.Default()
	if path != "" {
		if c, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dir := c.ExperimentDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("setup: could not create experiment "+
			"directory: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, config.LogFile),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("setup: could not open log file: %v", err)
	}
	logger := log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)

	c.ResolveDevice(logger)
	if err := c.Record(filepath.Join(dir, config.ConfigFile)); err != nil {
		f.Close()
		return nil, err
	}
	logger.SetPrefix(fmt.Sprintf("[%.8v] ", c.RunID))
	logger.Printf("Experiment: %v", c.ExperimentName())

	// Network weight initialisers draw from the global source
	rand.Seed(int64(c.Seed))

	factory, err := envconfig.NewFactory(c.EnvName, c.MaxEpisodeSteps)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &run{
		config:  c,
		dir:     dir,
		logger:  logger,
		logFile: f,
		factory: factory,
	}, nil
}

// newAgent creates the configured agent for e, together with the
// observation normaliser and the checkpointer which stores both
func (r *run) newAgent(e env.Environment) (agent.Agent, error) {
	a, err := agent.New(agent.Type(r.config.AlgoName), e, r.config.Agent,
		r.config.Seed)
	if err != nil {
		return nil, err
	}

	modelPath := filepath.Join(r.dir, config.ModelFile)
	if r.config.NormState {
		dims := e.ObservationSpec().Shape.Len()
		running := normalizer.NewRunning(dims)
		r.norm = running
		r.best = checkpointer.NewBest(modelPath, checkpointer.Companion{
			Suffix:     config.NormalizerExt,
			Persistent: running,
		})
	} else {
		r.norm = normalizer.NewIdentity()
		r.best = checkpointer.NewBest(modelPath)
	}
	return a, nil
}

// generate rolls out a deterministically in a freshly seeded environment
// and saves the resulting dataset to the data directory
func (r *run) generate(a agent.Agent) (path string, err error) {
	e, err := r.factory(r.config.Seed + experiment.EvalSeedOffset)
	if err != nil {
		return "", err
	}
	defer closeEnv(e, &err)

	name, err := dataset.FileName(r.config.EnvName)
	if err != nil {
		return "", err
	}

	r.logger.Printf("Generating %v expert transitions", r.config.DatasetSteps)
	d, err := dataset.Generate(a, e, r.norm, r.config.DatasetSteps)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.config.DataDir, 0755); err != nil {
		return "", fmt.Errorf("generate: could not create data "+
			"directory: %v", err)
	}
	path = filepath.Join(r.config.DataDir, name)
	if err := d.Save(path); err != nil {
		return "", err
	}
	r.logger.Printf("Saved %v transitions to %v", d.Len(), path)
	return path, nil
}

// closeEnv closes e, reporting a failure through err unless an earlier
// error is already being returned
func closeEnv(e env.Environment, err *error) {
	if closeErr := env.Close(e); closeErr != nil && *err == nil {
		*err = fmt.Errorf("could not close environment: %w", closeErr)
	}
}

func (r *run) close() {
	r.logFile.Close()
}

// summarize prints the colored outcome of a run
func summarize(lines ...[2]interface{}) {
	for _, line := range lines {
		fmt.Printf("%v %v\n", aurora.Bold(line[0]), aurora.Green(line[1]))
	}
}
