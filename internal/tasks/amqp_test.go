package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/service"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	err  error
	sent []published
	mu   sync.Mutex
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

// fakeAcker records how a delivery was settled.
type fakeAcker struct {
	acks, nacks int
	requeued    bool
}

func (a *fakeAcker) Ack(uint64, bool) error { a.acks++; return nil }

func (a *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *fakeAcker) Reject(uint64, bool) error { return nil }

func delivery(t *testing.T, task service.Task, attempt int) (amqp.Delivery, *fakeAcker) {
	t.Helper()
	body, err := json.Marshal(task)
	require.NoError(t, err)
	acker := &fakeAcker{}
	return amqp.Delivery{
		Acknowledger: acker,
		RoutingKey:   string(task.Kind),
		Headers:      amqp.Table{headerAttempt: int32(attempt)},
		Body:         body,
	}, acker
}

func newTestWorker(ch publisher, r *Router) *AMQPWorker {
	w := newAMQPWorker(ch, r, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})
	w.sleep = func(context.Context, time.Duration) error { return nil }
	return w
}

func TestAMQPSchedulerEnqueue(t *testing.T) {
	ch := &fakeChannel{}
	s := &AMQPScheduler{ch: ch}

	require.NoError(t, s.Enqueue(context.Background(), service.Task{Kind: service.TaskGhostSweep, UserID: "u1"}))
	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, ExchangeName, sent.exchange)
	assert.Equal(t, string(service.TaskGhostSweep), sent.key)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)

	var task service.Task
	require.NoError(t, json.Unmarshal(sent.msg.Body, &task))
	assert.Equal(t, "u1", task.UserID)
	assert.False(t, task.EnqueuedAt.IsZero())

	ch.err = errors.New("channel closed")
	err := s.Enqueue(context.Background(), service.Task{Kind: service.TaskRetrain})
	require.Error(t, err)
	assert.True(t, common.IsRetryable(err))
}

func TestAMQPWorkerSuccess(t *testing.T) {
	r := NewRouter()
	var attempt int
	r.Register(service.TaskRetrain, func(_ context.Context, task service.Task) error {
		attempt = task.Attempt
		return nil
	})
	ch := &fakeChannel{}

	d, acker := delivery(t, service.Task{Kind: service.TaskRetrain}, 0)
	newTestWorker(ch, r).Handle(context.Background(), d)

	assert.Equal(t, 1, attempt)
	assert.Equal(t, 1, acker.acks)
	assert.Empty(t, ch.sent)
}

func TestAMQPWorkerRetriesThenDeadLetters(t *testing.T) {
	r := NewRouter()
	r.Register(service.TaskCommitPending, func(context.Context, service.Task) error {
		return errors.New("llm timeout")
	})
	ch := &fakeChannel{}
	w := newTestWorker(ch, r)

	d, acker := delivery(t, service.Task{Kind: service.TaskCommitPending, UserID: "u1"}, 0)
	w.Handle(context.Background(), d)

	require.Len(t, ch.sent, 1)
	retry := ch.sent[0]
	assert.Equal(t, ExchangeName, retry.exchange)
	assert.EqualValues(t, 1, retry.msg.Headers[headerAttempt])
	assert.Equal(t, 1, acker.acks)

	// Third attempt is the last one allowed.
	d, acker = delivery(t, service.Task{Kind: service.TaskCommitPending, UserID: "u1"}, 2)
	w.Handle(context.Background(), d)

	require.Len(t, ch.sent, 2)
	dead := ch.sent[1]
	assert.Equal(t, DLQExchangeName, dead.exchange)
	assert.Equal(t, string(service.TaskCommitPending), dead.key)
	assert.Equal(t, "llm timeout", dead.msg.Headers[headerOriginalError])
	assert.Equal(t, 1, acker.acks)
}

func TestAMQPWorkerPermanentFailure(t *testing.T) {
	r := NewRouter()
	r.Register(service.TaskGhostSweep, func(context.Context, service.Task) error {
		return common.Permanent(errors.New("unknown user"))
	})
	ch := &fakeChannel{}

	d, acker := delivery(t, service.Task{Kind: service.TaskGhostSweep}, 0)
	newTestWorker(ch, r).Handle(context.Background(), d)

	require.Len(t, ch.sent, 1)
	assert.Equal(t, DLQExchangeName, ch.sent[0].exchange)
	assert.Equal(t, 1, acker.acks)
}

func TestAMQPWorkerMalformedMessage(t *testing.T) {
	ch := &fakeChannel{}
	acker := &fakeAcker{}
	d := amqp.Delivery{Acknowledger: acker, RoutingKey: "retrain", Body: []byte("{not json")}

	newTestWorker(ch, NewRouter()).Handle(context.Background(), d)

	require.Len(t, ch.sent, 1)
	assert.Equal(t, DLQExchangeName, ch.sent[0].exchange)
	assert.Equal(t, []byte("{not json"), ch.sent[0].msg.Body)
	assert.Equal(t, 1, acker.acks)
}

func TestAMQPWorkerRequeuesWhenPublishFails(t *testing.T) {
	r := NewRouter()
	r.Register(service.TaskRetrain, func(context.Context, service.Task) error {
		return errors.New("busy")
	})
	ch := &fakeChannel{err: errors.New("channel closed")}

	d, acker := delivery(t, service.Task{Kind: service.TaskRetrain}, 0)
	newTestWorker(ch, r).Handle(context.Background(), d)

	assert.Zero(t, acker.acks)
	assert.Equal(t, 1, acker.nacks)
	assert.True(t, acker.requeued)
}

func TestAMQPWorkerRecoversPanics(t *testing.T) {
	r := NewRouter()
	r.Register(service.TaskRetrain, func(context.Context, service.Task) error {
		panic("boom")
	})
	ch := &fakeChannel{}

	d, acker := delivery(t, service.Task{Kind: service.TaskRetrain}, 0)
	newTestWorker(ch, r).Handle(context.Background(), d)

	require.Len(t, ch.sent, 1)
	assert.Equal(t, DLQExchangeName, ch.sent[0].exchange)
	assert.Equal(t, 1, acker.acks)
}
