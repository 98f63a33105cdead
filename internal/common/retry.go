package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krishhsuri/Orbit/internal/service"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, Retryable: false}
}

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, Retryable: true}
}

// WithDefaults fills zero fields of opts.
func WithDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	return opts
}

// BackoffDelay returns the delay before the given 1-based retry attempt.
func BackoffDelay(attempt int, opts service.RetryOptions) time.Duration {
	opts = WithDefaults(opts)
	delay := opts.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay > opts.MaxDelay {
			return opts.MaxDelay
		}
	}
	return delay
}

// WithRetry runs operation until it succeeds, returns a permanent error,
// the attempts are exhausted, or ctx is done.
func WithRetry(ctx context.Context, operation func(ctx context.Context) error, opts service.RetryOptions) error {
	opts = WithDefaults(opts)

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		var retryableErr *RetryableError
		if errors.As(err, &retryableErr) && !retryableErr.Retryable {
			return err
		}
		if errors.Is(err, context.Canceled) {
			return err
		}

		if attempt == opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		delay := BackoffDelay(attempt, opts)
		if errors.Is(err, ErrRateLimit) {
			delay = opts.MaxDelay
		}

		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return ErrMaxRetries
}
