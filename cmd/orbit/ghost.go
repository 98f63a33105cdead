package main

import (
	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
)

func ghostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ghost",
		Short: "Mark applications that went silent as ghosted",
		Long: `Find applications still in applied or screening whose last status
change is older than ghost.threshold_days, and mark them ghosted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			preview, _ := cmd.Flags().GetBool("preview")
			days, _ := cmd.Flags().GetInt("days")
			if days > 0 {
				settings.Ghost.ThresholdDays = days
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			d := a.detector()
			if preview {
				events, err := d.Preview(ctx, settings.User.ID)
				if err != nil {
					return err
				}
				writeln(cmd.OutOrStdout(), cli.FormatGhostEvents(events, d.ThresholdDays(), true))
				return nil
			}

			events, err := d.Sweep(ctx, settings.User.ID)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), cli.FormatGhostEvents(events, d.ThresholdDays(), false))
			return nil
		},
	}
	cmd.Flags().Bool("preview", false, "list candidates without changing anything")
	cmd.Flags().Int("days", 0, "override ghost.threshold_days")
	return cmd
}
