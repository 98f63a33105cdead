package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
)

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Retrain the learned filter from your review history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.trainer.Refresh(ctx)
			if err != nil {
				return err
			}
			if !res.Trained {
				writeln(cmd.OutOrStdout(), cli.FormatWarning(fmt.Sprintf(
					"%d example(s) stored; need at least %d with both labels before the filter activates.",
					res.Examples, a.filter.MinExamples())))
				return nil
			}
			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Learned filter trained on %d examples.", res.Examples)))
			return nil
		},
	}
}
