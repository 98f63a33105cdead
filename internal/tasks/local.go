package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/service"
)

// DefaultQueueSize bounds the in-process queue.
const DefaultQueueSize = 64

// ErrSchedulerClosed is returned by Enqueue after Close.
var ErrSchedulerClosed = errors.New("scheduler closed")

var _ service.Scheduler = (*LocalScheduler)(nil)

type taskKey struct {
	kind service.TaskKind
	user string
}

// LocalScheduler runs tasks on a single background goroutine. A task that
// is already queued for the same kind and user is coalesced into the queued
// one, so a burst of feedback produces one retrain.
type LocalScheduler struct {
	router  *Router
	queue   chan service.Task
	pending map[taskKey]bool
	done    chan struct{}
	retry   service.RetryOptions
	mu      sync.Mutex
	// closeMu is held for reading while sending so Close never closes the
	// queue under a sender.
	closeMu sync.RWMutex
	closed  bool
}

// NewLocalScheduler creates a scheduler. Call Run to start processing.
func NewLocalScheduler(router *Router, retry service.RetryOptions, queueSize int) *LocalScheduler {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &LocalScheduler{
		router:  router,
		queue:   make(chan service.Task, queueSize),
		pending: make(map[taskKey]bool),
		done:    make(chan struct{}),
		retry:   common.WithDefaults(retry),
	}
}

// Enqueue queues task. It blocks while the queue is full, until ctx ends or
// Run returns.
func (s *LocalScheduler) Enqueue(ctx context.Context, task service.Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	key := taskKey{kind: task.Kind, user: task.UserID}

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed || s.stopped() {
		return ErrSchedulerClosed
	}

	s.mu.Lock()
	if s.pending[key] {
		s.mu.Unlock()
		slog.Debug("Task already queued", "kind", task.Kind, "user_id", task.UserID)
		return nil
	}
	s.pending[key] = true
	s.mu.Unlock()

	select {
	case s.queue <- task:
		return nil
	case <-s.done:
		s.forget(key)
		return ErrSchedulerClosed
	case <-ctx.Done():
		s.forget(key)
		return ctx.Err()
	}
}

func (s *LocalScheduler) forget(key taskKey) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

// stopped reports whether Run has returned.
func (s *LocalScheduler) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Run processes tasks until ctx is done or Close is called and the queue drains.
func (s *LocalScheduler) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-s.queue:
			if !ok {
				return
			}
			s.run(ctx, task)
		}
	}
}

func (s *LocalScheduler) run(ctx context.Context, task service.Task) {
	s.mu.Lock()
	delete(s.pending, taskKey{kind: task.Kind, user: task.UserID})
	s.mu.Unlock()

	attempt := task.Attempt
	err := common.WithRetry(ctx, func(ctx context.Context) error {
		attempt++
		t := task
		t.Attempt = attempt
		return s.router.Handle(ctx, t)
	}, s.retry)
	if err != nil {
		slog.Error("Task dropped", "kind", task.Kind, "user_id", task.UserID, "attempts", attempt, "error", err)
	}
}

// Close stops accepting tasks and waits for queued ones to finish, or for
// ctx to end. Run must have been started.
func (s *LocalScheduler) Close(ctx context.Context) error {
	s.closeMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.closeMu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
