package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/service"
	"github.com/krishhsuri/Orbit/internal/tasks"
)

var errNoBroker = common.NewUserError("no broker configured; set amqp.url or ORBIT_AMQP_URL", common.ErrMissingConfig)

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background tasks and periodic ghost sweeps",
		Long: `Run queued tasks (commit, ghost sweep, retrain) until interrupted.

With amqp.url set, tasks are consumed from RabbitMQ with retries and a
dead-letter queue; otherwise they run in process. Prometheus metrics are
served on metrics.addr.`,
		RunE: runWorker,
	}
	cmd.Flags().Duration("commit-every", 0, "also commit pending records on this interval (needs an LLM)")
	return cmd
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	commitEvery, _ := cmd.Flags().GetDuration("commit-every")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if commitEvery > 0 {
		if err := requireLLM(a); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	router := a.router()

	var scheduler service.Scheduler
	if settings.AMQP.URL != "" {
		conn, ch, err := tasks.Dial(settings.AMQP.URL)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()
		pubCh, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open publish channel: %w", err)
		}
		scheduler = tasks.NewAMQPScheduler(pubCh)

		worker := tasks.NewAMQPWorker(ch, router, service.RetryOptions{})
		g.Go(func() error { return worker.Consume(ctx, ch) })
	} else {
		local := tasks.NewLocalScheduler(router, service.RetryOptions{}, tasks.DefaultQueueSize)
		scheduler = local
		g.Go(func() error {
			local.Run(ctx)
			return nil
		})
	}

	if settings.Metrics.Addr != "" {
		g.Go(func() error { return serveMetrics(ctx, settings.Metrics.Addr) })
	}

	g.Go(func() error {
		return schedule(ctx, scheduler, service.TaskGhostSweep, settings.Ghost.Interval)
	})
	if commitEvery > 0 {
		g.Go(func() error {
			return schedule(ctx, scheduler, service.TaskCommitPending, commitEvery)
		})
	}

	slog.Info("Worker started",
		"user_id", settings.User.ID,
		"broker", settings.AMQP.URL != "",
		"ghost_interval", settings.Ghost.Interval,
		"commit_every", commitEvery)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Worker stopped")
	return nil
}

// schedule enqueues kind now and then on every tick until ctx ends.
func schedule(ctx context.Context, scheduler service.Scheduler, kind service.TaskKind, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		task := service.Task{Kind: kind, UserID: settings.User.ID, EnqueuedAt: time.Now().UTC()}
		if err := scheduler.Enqueue(ctx, task); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("Failed to schedule task", "kind", kind, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
