package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/expertgen/config"
	"github.com/samuelfneumann/expertgen/experiment"
	"github.com/samuelfneumann/expertgen/experiment/trackers"
	"github.com/samuelfneumann/expertgen/utils/progressbar"
)

const (
	barWidth   = 40
	barRefresh = 250
)

func trainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent, then generate a dataset with its best parameters",
		RunE:  train,
	}
	cmd.Flags().Bool("skip-dataset", false,
		"only train, do not generate a dataset")
	cmd.Flags().Bool("quiet", false, "do not draw a progress bar")
	return cmd
}

// redraw returns whether the progress bar is drawn after step t, which
// counts completed steps
func redraw(t int) bool {
	return t%barRefresh == 0
}

func train(cmd *cobra.Command, args []string) (err error) {
	skipDataset, err := cmd.Flags().GetBool("skip-dataset")
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}

	r, err := setup(cmd)
	if err != nil {
		return err
	}
	defer r.close()
	c := r.config

	e, err := r.factory(c.Seed)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	a, err := r.newAgent(e)
	if err != nil {
		return err
	}

	scalars := trackers.NewScalars(filepath.Join(r.dir, config.ScalarsFile))
	evaluator := experiment.NewEvaluator(r.factory, c.Seed, c.EvalEpisodes,
		r.norm)

	opts := []experiment.Option{
		experiment.WithNormalizer(r.norm),
		experiment.WithLogger(r.logger),
		experiment.WithTracker(scalars),
	}
	var bar *progressbar.ManualProgressBar
	if !quiet {
		bar = progressbar.NewManualProgressBar(os.Stderr, barWidth,
			c.MaxTimesteps)
		opts = append(opts, experiment.WithStepHook(
			func(t int, phase experiment.Phase) {
				bar.Increment()
				if redraw(t) {
					bar.SetStatus(phase.String())
					bar.Display()
				}
			}))
	}

	o, err := experiment.NewOnline(e, a, evaluator, r.best, c.Experiment(),
		opts...)
	if err != nil {
		return err
	}
	trained, err := o.Run()
	if bar != nil {
		bar.SetStatus(o.Phase().String())
		bar.Close()
	}
	if err != nil {
		return err
	}

	if err := scalars.Save(); err != nil {
		return err
	}
	curve := filepath.Join(r.dir, config.CurveFile)
	if err := scalars.RenderFile(curve); err != nil {
		return err
	}

	lines := [][2]interface{}{
		{"Experiment:", c.ExperimentName()},
		{"Best score:", fmt.Sprintf("%.3f", r.best.Score())},
		{"Checkpoint:", r.best.Path()},
		{"Learning curve:", curve},
	}
	if !skipDataset {
		path, err := r.generate(trained)
		if err != nil {
			return err
		}
		lines = append(lines, [2]interface{}{"Dataset:", path})
	}
	summarize(lines...)
	return nil
}
