package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first try", failures: 0, err: boom, attempts: 3, wantCalls: 1},
		{name: "succeeds after transient failures", failures: 2, err: boom, attempts: 3, wantCalls: 3},
		{name: "exhausts attempts", failures: 5, err: boom, attempts: 3, wantCalls: 3, wantErr: ErrMaxRetries},
		{name: "stops on permanent error", failures: 5, err: Permanent(boom), attempts: 3, wantCalls: 1, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			}, fastRetry(tt.attempts))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func(context.Context) error {
		return errors.New("temporary")
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelay(t *testing.T) {
	opts := service.RetryOptions{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2, MaxAttempts: 5}
	assert.Equal(t, 10*time.Millisecond, BackoffDelay(1, opts))
	assert.Equal(t, 20*time.Millisecond, BackoffDelay(2, opts))
	assert.Equal(t, 40*time.Millisecond, BackoffDelay(3, opts))
	assert.Equal(t, 50*time.Millisecond, BackoffDelay(4, opts))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "rate limit", err: ErrRateLimit, want: true},
		{name: "transient", err: Transient(errors.New("x")), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "wrapped llm unavailable", err: fmt.Errorf("decide: %w", ErrLLMUnavailable), want: true},
		{name: "permanent llm unavailable", err: Permanent(ErrLLMUnavailable), want: false},
		{name: "permanent wrapped mailbox", err: Permanent(fmt.Errorf("list: %w", ErrMailboxUnavailable)), want: false},
		{name: "wrapped permanent rate limit", err: fmt.Errorf("task: %w", Permanent(ErrRateLimit)), want: false},
		{name: "plain", err: errors.New("plain"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
