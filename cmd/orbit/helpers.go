package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/ghost"
	"github.com/krishhsuri/Orbit/internal/learned"
	"github.com/krishhsuri/Orbit/internal/llm"
	"github.com/krishhsuri/Orbit/internal/mailbox"
	"github.com/krishhsuri/Orbit/internal/matching"
	"github.com/krishhsuri/Orbit/internal/pipeline"
	"github.com/krishhsuri/Orbit/internal/service"
	"github.com/krishhsuri/Orbit/internal/storage"
	"github.com/krishhsuri/Orbit/internal/tasks"
)

// app bundles the collaborators every command shares.
type app struct {
	store   *storage.SQLiteStorage
	filter  *learned.Filter
	trainer *learned.Trainer
	decider *llm.DecisionClient
	orch    *pipeline.Orchestrator
	matcher *matching.Matcher
}

// openApp opens and migrates the database, trains the learned filter from
// stored feedback and builds the orchestrator. The LLM is wired only when
// an API key is configured.
func openApp(ctx context.Context) (*app, error) {
	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &app{store: store, matcher: matching.NewMatcher()}
	a.filter = learned.NewFilter(
		learned.WithMinExamples(settings.Learned.MinExamples),
		learned.WithLogger(slog.Default()),
	)
	a.trainer = learned.NewTrainer(store, a.filter)
	if res, err := a.trainer.Refresh(ctx); err != nil {
		// The cascade still works without the learned gate.
		slog.Warn("Failed to train learned filter", "error", err)
	} else {
		slog.Debug("Learned filter refreshed", "examples", res.Examples, "trained", res.Trained)
	}

	opts := []pipeline.Option{pipeline.WithLearnedFilter(a.filter, settings.Learned.ConfidenceThreshold)}
	if settings.LLMEnabled() {
		client, err := llm.NewClient(settings.LLM)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.decider = llm.NewDecisionClient(client, settings.LLM, slog.Default())
		opts = append(opts, pipeline.WithDecider(a.decider))
	}
	a.orch = pipeline.NewOrchestrator(opts...)
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func (a *app) committer(userID string) *pipeline.Committer {
	return pipeline.NewCommitter(a.store, a.orch, a.matcher, userID)
}

func (a *app) detector() *ghost.Detector {
	return ghost.NewDetector(a.store, ghost.WithThresholdDays(settings.Ghost.ThresholdDays))
}

func (a *app) feedback(scheduler service.Scheduler) *pipeline.Feedback {
	return pipeline.NewFeedback(a.store, a.orch, a.matcher, scheduler)
}

// router registers a handler for every task kind.
func (a *app) router() *tasks.Router {
	r := tasks.NewRouter()
	r.Register(service.TaskCommitPending, func(ctx context.Context, task service.Task) error {
		if !a.orch.HasDecider() {
			return common.Permanent(fmt.Errorf("%w: commit needs an LLM api key", common.ErrMissingConfig))
		}
		report, err := a.committer(userOf(task)).ProcessPending(ctx)
		if err != nil {
			return err
		}
		slog.Info("Committed pending records", "user_id", userOf(task), "added", report.Added, "updated", report.Updated, "failed", report.Failed)
		return nil
	})
	r.Register(service.TaskGhostSweep, func(ctx context.Context, task service.Task) error {
		_, err := a.detector().Sweep(ctx, userOf(task))
		return err
	})
	r.Register(service.TaskRetrain, func(ctx context.Context, _ service.Task) error {
		_, err := a.trainer.Refresh(ctx)
		return err
	})
	return r
}

// localTasks starts an in-process scheduler for tasks raised while a
// command runs. The returned stop function drains it.
func (a *app) localTasks(ctx context.Context) (*tasks.LocalScheduler, func()) {
	scheduler := tasks.NewLocalScheduler(a.router(), service.RetryOptions{}, tasks.DefaultQueueSize)
	go scheduler.Run(ctx)
	return scheduler, func() {
		// Drain with a fresh context so an interrupted command still
		// finishes its retrain.
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		if err := scheduler.Close(drainCtx); err != nil {
			slog.Warn("Background tasks did not finish", "error", err)
		}
	}
}

func userOf(task service.Task) string {
	if task.UserID != "" {
		return task.UserID
	}
	return settings.User.ID
}

// openMailbox returns a JSON file mailbox when from is set, otherwise Gmail.
func openMailbox(ctx context.Context, from string) (service.Mailbox, error) {
	if from != "" {
		return mailbox.Load(from)
	}
	ts, err := mailbox.TokenSource(ctx, settings.Gmail.OAuth())
	if err != nil {
		if errors.Is(err, common.ErrNotAuthorized) || errors.Is(err, common.ErrMissingConfig) {
			return nil, common.NewUserError("Gmail is not connected. Run `orbit auth` first, or pass --from <file.json>", err)
		}
		return nil, err
	}
	return mailbox.NewGmail(ctx, ts, mailbox.WithQuery(settings.Gmail.Query))
}

// requireLLM fails with a friendly message when no API key is set.
func requireLLM(a *app) error {
	if a.orch.HasDecider() {
		return nil
	}
	return common.NewUserError("this command needs an LLM; set llm.api_key or ORBIT_LLM_API_KEY", common.ErrMissingConfig)
}

func writeln(w io.Writer, s string) {
	if _, err := fmt.Fprintln(w, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
