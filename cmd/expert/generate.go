package main

import (
	"github.com/spf13/cobra"
)

func generateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset with the best checkpoint of a finished run",
		RunE:  generate,
	}
}

func generate(cmd *cobra.Command, args []string) (err error) {
	r, err := setup(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	e, err := r.factory(r.config.Seed)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	a, err := r.newAgent(e)
	if err != nil {
		return err
	}
	if err := r.best.Load(a); err != nil {
		return err
	}
	r.logger.Printf("Loaded checkpoint %v", r.best.Path())

	path, err := r.generate(a)
	if err != nil {
		return err
	}
	summarize([2]interface{}{"Dataset:", path})
	return nil
}
