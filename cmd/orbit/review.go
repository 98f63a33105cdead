package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/tui"
)

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List staged records waiting for review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.ListStagingRecords(ctx, settings.User.ID, model.StagingPending)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				writeln(cmd.OutOrStdout(), cli.FormatSuccess("Nothing waiting for review."))
				return nil
			}
			for _, r := range records {
				writeln(cmd.OutOrStdout(), cli.RenderBox(r.ID, cli.FormatStagingRecord(r)))
			}
			return nil
		},
	}
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Confirm or reject staged records interactively",
		Long: `Walk through pending staged records and confirm or reject each one.
Your decisions train the learned filter.`,
		RunE: runReview,
	}
	cmd.Flags().Bool("plain", false, "use line prompts instead of the full-screen view")
	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	plain, _ := cmd.Flags().GetBool("plain")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler, stop := a.localTasks(ctx)
	defer stop()
	fb := a.feedback(scheduler)

	var stats cli.ReviewStats
	if plain {
		records, err := a.store.ListStagingRecords(ctx, settings.User.ID, model.StagingPending)
		if err != nil {
			return err
		}
		stats, err = cli.NewReviewer(cmd.InOrStdin(), cmd.OutOrStdout(), fb).Review(ctx, records)
		if err != nil {
			return err
		}
	} else {
		stats, err = tui.Run(ctx, tui.Config{Store: a.store, Feedback: fb, UserID: settings.User.ID})
		if err != nil {
			return err
		}
	}

	writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Confirmed %d, rejected %d, skipped %d.", stats.Confirmed, stats.Rejected, stats.Skipped)))
	return nil
}

func confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <record-id>",
		Short: "Track a staged record as an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler, stop := a.localTasks(ctx)
			defer stop()

			res, err := a.feedback(scheduler).Confirm(ctx, args[0])
			if err != nil {
				return err
			}
			verb := "Tracking"
			if res.Updated {
				verb = "Updated"
			}
			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s %s (%s)", verb, res.Application.CompanyName, res.Application.Status)))
			return nil
		},
	}
}

func rejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <record-id>",
		Short: "Dismiss a staged record",
		Long: `Dismiss a staged record. Reasons not_job_related and promotional
teach the learned filter; the others only dismiss.

Reasons: not_job_related, promotional, duplicate, wrong_details, not_for_me, other`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("reason")
			reason := model.ParseFeedbackReason(raw)
			if reason == model.ReasonConfirmed {
				return common.NewUserError("use `orbit confirm` to accept a record", fmt.Errorf("invalid reject reason %q", raw))
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler, stop := a.localTasks(ctx)
			defer stop()

			if err := a.feedback(scheduler).Reject(ctx, args[0], reason); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), cli.FormatInfo("Rejected: "+string(reason)))
			return nil
		},
	}
	cmd.Flags().String("reason", string(model.ReasonNotJobRelated), "why the record is wrong")
	return cmd
}
