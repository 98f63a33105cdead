package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/service"
)

// Queue topology.
const (
	ExchangeName    = "orbit.tasks"
	QueueName       = "orbit.tasks"
	DLQExchangeName = "orbit.tasks.dlq"
	DLQQueueName    = "orbit.tasks.dlq"

	headerAttempt       = "x-attempt"
	headerOriginalError = "x-original-error"
	consumerTag         = "orbit-worker"
)

// publisher is the part of *amqp.Channel the scheduler and worker use.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Dial connects to the broker and declares the task exchange, queue and
// dead-letter queue.
func Dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func declareTopology(ch *amqp.Channel) error {
	for _, ex := range []string{ExchangeName, DLQExchangeName} {
		if err := ch.ExchangeDeclare(ex, "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", ex, err)
		}
	}
	bindings := []struct{ queue, exchange string }{
		{QueueName, ExchangeName},
		{DLQQueueName, DLQExchangeName},
	}
	for _, b := range bindings {
		q, err := ch.QueueDeclare(b.queue, true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		// Every task kind is bound by its routing key.
		for _, kind := range []service.TaskKind{service.TaskCommitPending, service.TaskGhostSweep, service.TaskRetrain} {
			if err := ch.QueueBind(q.Name, string(kind), b.exchange, false, nil); err != nil {
				return fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
			}
		}
	}
	return nil
}

func encodeTask(task service.Task) (amqp.Publishing, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode task: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    task.EnqueuedAt,
		Headers:      amqp.Table{headerAttempt: int32(task.Attempt)},
		Body:         body,
	}, nil
}

var _ service.Scheduler = (*AMQPScheduler)(nil)

// AMQPScheduler publishes tasks to the broker for an AMQPWorker to run.
type AMQPScheduler struct {
	ch publisher
}

// NewAMQPScheduler creates a scheduler publishing on ch.
func NewAMQPScheduler(ch *amqp.Channel) *AMQPScheduler {
	return &AMQPScheduler{ch: ch}
}

// Enqueue publishes task with the task kind as routing key.
func (s *AMQPScheduler) Enqueue(ctx context.Context, task service.Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	msg, err := encodeTask(task)
	if err != nil {
		return err
	}
	if err := s.ch.PublishWithContext(ctx, ExchangeName, string(task.Kind), false, false, msg); err != nil {
		return common.Transient(fmt.Errorf("failed to publish %s task: %w", task.Kind, err))
	}
	slog.Debug("Published task", "kind", task.Kind, "user_id", task.UserID)
	return nil
}

// AMQPWorker consumes tasks and runs them through a Router. A failed attempt
// is republished with an incremented attempt counter after a backoff delay;
// exhausted or permanent failures go to the dead-letter queue. Every delivery
// is acked exactly once, after its follow-up message is published.
type AMQPWorker struct {
	ch     publisher
	router *Router
	retry  service.RetryOptions
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewAMQPWorker creates a worker. Zero retry fields take the common defaults.
func NewAMQPWorker(ch *amqp.Channel, router *Router, retry service.RetryOptions) *AMQPWorker {
	return newAMQPWorker(ch, router, retry)
}

func newAMQPWorker(ch publisher, router *Router, retry service.RetryOptions) *AMQPWorker {
	return &AMQPWorker{ch: ch, router: router, retry: common.WithDefaults(retry), sleep: sleepCtx}
}

// Consume blocks, handling deliveries from the task queue until ctx is done
// or the channel closes.
func (w *AMQPWorker) Consume(ctx context.Context, ch *amqp.Channel) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, QueueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	slog.Info("Worker consuming tasks", "queue", QueueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle processes one delivery.
func (w *AMQPWorker) Handle(ctx context.Context, d amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task handler panic", "panic", r)
			w.deadLetter(ctx, d, fmt.Sprintf("panic: %v", r))
		}
	}()

	var task service.Task
	if err := json.Unmarshal(d.Body, &task); err != nil {
		slog.Error("Malformed task message", "error", err)
		w.deadLetter(ctx, d, err.Error())
		return
	}
	task.Attempt = attemptOf(d) + 1

	err := w.router.Handle(ctx, task)
	if err == nil {
		w.ack(d)
		return
	}

	if !retryable(err) || task.Attempt >= w.retry.MaxAttempts {
		slog.Error("Task failed permanently", "kind", task.Kind, "attempt", task.Attempt, "error", err)
		w.deadLetter(ctx, d, err.Error())
		return
	}

	delay := common.BackoffDelay(task.Attempt, w.retry)
	slog.Warn("Task failed, retrying", "kind", task.Kind, "attempt", task.Attempt, "delay", delay, "error", err)
	if err := w.sleep(ctx, delay); err != nil {
		w.nack(d)
		return
	}

	msg, err := encodeTask(task)
	if err == nil {
		err = w.ch.PublishWithContext(ctx, ExchangeName, string(task.Kind), false, false, msg)
	}
	if err != nil {
		slog.Error("Failed to republish task", "kind", task.Kind, "error", err)
		w.nack(d)
		return
	}
	w.ack(d)
}

func (w *AMQPWorker) deadLetter(ctx context.Context, d amqp.Delivery, reason string) {
	headers := amqp.Table{headerOriginalError: reason, headerAttempt: int32(attemptOf(d) + 1)}
	err := w.ch.PublishWithContext(ctx, DLQExchangeName, d.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         d.Body,
	})
	if err != nil {
		slog.Error("Failed to publish to dead-letter queue", "error", err)
		w.nack(d)
		return
	}
	w.ack(d)
}

func (w *AMQPWorker) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		slog.Error("Failed to ack task", "error", err)
	}
}

// nack requeues the delivery with its attempt count unchanged.
func (w *AMQPWorker) nack(d amqp.Delivery) {
	if err := d.Nack(false, true); err != nil {
		slog.Error("Failed to nack task", "error", err)
	}
}

// attemptOf reads the attempts already made from the message header.
func attemptOf(d amqp.Delivery) int {
	switch v := d.Headers[headerAttempt].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
