// Package storage provides the SQLite persistence layer for staging records,
// tracked applications, training examples and sync bookmarks.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krishhsuri/Orbit/internal/model"
)

// Validation errors.
var (
	ErrNilContext             = errors.New("context cannot be nil")
	ErrEmptyString            = errors.New("string parameter cannot be empty")
	ErrNilParameter           = errors.New("parameter cannot be nil")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStagingRecord   = errors.New("invalid staging record")
	ErrInvalidApplication     = errors.New("invalid application")
	ErrInvalidTrainingExample = errors.New("invalid training example")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateStagingRecord(r *model.StagingRecord) error {
	if r == nil {
		return fmt.Errorf("%w: staging record", ErrNilParameter)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidStagingRecord)
	}
	if strings.TrimSpace(r.SourceID) == "" {
		return fmt.Errorf("%w: missing source ID", ErrInvalidStagingRecord)
	}
	if r.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidStagingRecord)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidStagingRecord)
	}
	return validateStagingStatus(r.Status)
}

func validateStagingStatus(status model.StagingStatus) error {
	switch status {
	case model.StagingPending, model.StagingConfirmed, model.StagingRejected:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

func validateApplication(app *model.TrackedApplication) error {
	if app == nil {
		return fmt.Errorf("%w: application", ErrNilParameter)
	}
	if strings.TrimSpace(app.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidApplication)
	}
	if strings.TrimSpace(app.CompanyName) == "" {
		return fmt.Errorf("%w: missing company name", ErrInvalidApplication)
	}
	if strings.TrimSpace(app.RoleTitle) == "" {
		return fmt.Errorf("%w: missing role title", ErrInvalidApplication)
	}
	if !app.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, app.Status)
	}
	return nil
}

func validateTrainingExample(ex *model.TrainingExample) error {
	if ex == nil {
		return fmt.Errorf("%w: training example", ErrNilParameter)
	}
	if ex.Label != model.LabelPositive && ex.Label != model.LabelNegative {
		return fmt.Errorf("%w: label %q", ErrInvalidTrainingExample, ex.Label)
	}
	if strings.TrimSpace(ex.Subject+ex.Snippet+ex.Sender) == "" {
		return fmt.Errorf("%w: no text", ErrInvalidTrainingExample)
	}
	return nil
}
