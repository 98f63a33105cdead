package main

import (
	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/service"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Let the LLM decide every pending staged record",
		Long: `Ask the LLM for a commit decision on each pending staging record.
Accepted records become tracked applications or update the matching one;
the rest are discarded. Records whose decision could not be made stay
pending for the next run.`,
		RunE: runProcess,
	}
	cmd.Flags().Bool("queue", false, "queue the work for the worker instead of running it here")
	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	if queue, _ := cmd.Flags().GetBool("queue"); queue {
		if settings.AMQP.URL == "" {
			return errNoBroker
		}
		return enqueueRemote(cmd, service.Task{Kind: service.TaskCommitPending, UserID: settings.User.ID})
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireLLM(a); err != nil {
		return err
	}

	report, err := a.committer(settings.User.ID).ProcessPending(ctx)
	if err != nil {
		return err
	}
	writeln(cmd.OutOrStdout(), cli.FormatCommitReport(report))
	return nil
}
