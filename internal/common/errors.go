// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Mailbox errors.
	ErrMailboxUnavailable = errors.New("mailbox unavailable")
	ErrNotAuthorized      = errors.New("mailbox not authorized")

	// Classification errors.
	ErrNotEnoughExamples = errors.New("not enough training examples")
	ErrInvalidTransition = errors.New("invalid status transition")

	// LLM errors.
	ErrLLMUnavailable    = errors.New("llm unavailable")
	ErrMalformedResponse = errors.New("malformed llm response")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
// An explicit RetryableError classification wins over the sentinels it wraps.
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrLLMUnavailable) ||
		errors.Is(err, ErrMailboxUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
