// Package tasks runs deferred pipeline work (deep processing, ghost sweeps
// and retraining) either in-process or through a RabbitMQ queue, retrying
// failed tasks with bounded attempts.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/service"
)

// Router dispatches tasks to the handler registered for their kind.
type Router struct {
	handlers map[service.TaskKind]service.TaskHandler
	mu       sync.RWMutex
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[service.TaskKind]service.TaskHandler)}
}

// Register installs h for kind, replacing any previous handler.
func (r *Router) Register(kind service.TaskKind, h service.TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Kinds returns the registered task kinds.
func (r *Router) Kinds() []service.TaskKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]service.TaskKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Handle runs one attempt of task. An unknown kind is a permanent failure.
func (r *Router) Handle(ctx context.Context, task service.Task) error {
	r.mu.RLock()
	h, ok := r.handlers[task.Kind]
	r.mu.RUnlock()
	if !ok {
		metrics.IncrementTaskRun(string(task.Kind), "unknown")
		return common.Permanent(fmt.Errorf("no handler for task kind %q", task.Kind))
	}

	start := time.Now()
	err := h(ctx, task)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.IncrementTaskRun(string(task.Kind), outcome)
	slog.Debug("Task attempt finished",
		"kind", task.Kind,
		"user_id", task.UserID,
		"attempt", task.Attempt,
		"duration", time.Since(start),
		"error", err)
	return err
}

// retryable reports whether a failed attempt should be tried again.
// Errors not explicitly marked permanent are retried.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var re *common.RetryableError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return true
}
