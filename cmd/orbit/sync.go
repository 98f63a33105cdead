package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/pipeline"
	"github.com/krishhsuri/Orbit/internal/service"
	"github.com/krishhsuri/Orbit/internal/tasks"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Stage job-related email received since the last sync",
		Long: `Fetch recent messages, run the local classification cascade on each
and stage the job-related ones for review.

Already-staged messages are skipped, so sync is safe to rerun. An
interrupted sync keeps everything staged so far.`,
		RunE: runSync,
	}

	cmd.Flags().String("from", "", "read messages from a JSON file instead of Gmail")
	cmd.Flags().Int("max", 0, "maximum messages to fetch (default: sync.max_results)")
	cmd.Flags().Bool("no-enrich", false, "never call the LLM to fill in company or role")
	cmd.Flags().Bool("process", false, "commit staged records afterwards (needs an LLM)")
	cmd.Flags().Bool("quiet", false, "hide the progress bar")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	from, _ := cmd.Flags().GetString("from")
	maxResults, _ := cmd.Flags().GetInt("max")
	noEnrich, _ := cmd.Flags().GetBool("no-enrich")
	process, _ := cmd.Flags().GetBool("process")
	quiet, _ := cmd.Flags().GetBool("quiet")
	if maxResults <= 0 {
		maxResults = settings.Sync.MaxResults
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	mb, err := openMailbox(ctx, from)
	if err != nil {
		return err
	}

	opts := pipeline.SyncOptions{
		UserID:     settings.User.ID,
		UserEmail:  settings.User.Email,
		MaxResults: maxResults,
		Enrich:     settings.Sync.Enrich && !noEnrich,
	}
	if !quiet {
		opts.Progress = cli.NewSyncProgress(cmd.ErrOrStderr()).Update
	}

	report, err := pipeline.NewSyncer(mb, a.store, a.orch, opts).Sync(ctx)
	if err != nil {
		return err
	}
	writeln(cmd.OutOrStdout(), cli.FormatSyncReport(report))

	if !process || report.Cancelled {
		return nil
	}
	if err := requireLLM(a); err != nil {
		return err
	}

	// With a broker configured, hand the commit to the worker.
	if settings.AMQP.URL != "" {
		return enqueueRemote(cmd, service.Task{Kind: service.TaskCommitPending, UserID: settings.User.ID})
	}
	commit, err := a.committer(settings.User.ID).ProcessPending(ctx)
	if err != nil {
		return err
	}
	writeln(cmd.OutOrStdout(), cli.FormatCommitReport(commit))
	return nil
}

// enqueueRemote publishes one task to the configured broker.
func enqueueRemote(cmd *cobra.Command, task service.Task) error {
	conn, ch, err := tasks.Dial(settings.AMQP.URL)
	if err != nil {
		return err
	}
	defer func() {
		_ = ch.Close()
		_ = conn.Close()
	}()

	task.EnqueuedAt = time.Now().UTC()
	if err := tasks.NewAMQPScheduler(ch).Enqueue(cmd.Context(), task); err != nil {
		return err
	}
	slog.Debug("Queued task on broker", "kind", task.Kind)
	writeln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Queued %s for the worker.", task.Kind)))
	return nil
}
