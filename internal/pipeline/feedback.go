package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/llm"
	"github.com/krishhsuri/Orbit/internal/matching"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

// ErrAlreadyReviewed is returned when a staging record is no longer pending.
var ErrAlreadyReviewed = errors.New("staging record already reviewed")

// FeedbackStore is the persistence user review needs.
type FeedbackStore interface {
	service.StagingStore
	service.ApplicationStore
	service.TrainingStore
}

// Feedback applies user confirm/reject decisions and turns trainable ones
// into training examples.
type Feedback struct {
	store     FeedbackStore
	tracker   *tracker
	scheduler service.Scheduler
}

// NewFeedback creates a feedback handler. scheduler may be nil, in which
// case no retrain is requested.
func NewFeedback(store FeedbackStore, orch *Orchestrator, matcher *matching.Matcher, scheduler service.Scheduler) *Feedback {
	return &Feedback{
		store:     store,
		tracker:   newTracker(store, orch, matcher),
		scheduler: scheduler,
	}
}

// ConfirmResult reports what a confirmation did.
type ConfirmResult struct {
	Application model.TrackedApplication
	Updated     bool
}

// Confirm records the staged email as a tracked application, or links it to
// the matching existing one, and stores a positive training example.
func (f *Feedback) Confirm(ctx context.Context, recordID string) (ConfirmResult, error) {
	record, err := f.pending(ctx, recordID)
	if err != nil {
		return ConfirmResult{}, err
	}

	out, err := f.tracker.record(ctx, candidate{
		email:   record.Email(),
		userID:  record.UserID,
		company: record.Company,
		role:    record.Role,
		jobURL:  record.JobURL,
		source:  model.SourceGmailAuto,
		status:  llm.MapStatus(string(record.Category)),
	})
	if err != nil {
		return ConfirmResult{}, err
	}
	if err := f.store.UpdateStagingStatus(ctx, record.ID, model.StagingConfirmed); err != nil {
		return ConfirmResult{}, err
	}

	if err := f.learn(ctx, *record, model.ReasonConfirmed); err != nil {
		return ConfirmResult{}, err
	}
	return ConfirmResult{Application: out.Application, Updated: out.Match.Found()}, nil
}

// Reject dismisses a staged email. Only trainable reasons produce a negative
// training example.
func (f *Feedback) Reject(ctx context.Context, recordID string, reason model.FeedbackReason) error {
	record, err := f.pending(ctx, recordID)
	if err != nil {
		return err
	}
	if reason == model.ReasonConfirmed {
		return common.NewUserError("use confirm to accept a record", fmt.Errorf("invalid reject reason %q", reason))
	}
	if err := f.store.UpdateStagingStatus(ctx, record.ID, model.StagingRejected); err != nil {
		return err
	}
	slog.Info("Rejected staging record", "id", record.ID, "reason", reason)
	return f.learn(ctx, *record, reason)
}

func (f *Feedback) pending(ctx context.Context, recordID string) (*model.StagingRecord, error) {
	record, err := f.store.GetStagingRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != model.StagingPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyReviewed, record.ID, record.Status)
	}
	return record, nil
}

// learn persists a training example for trainable reasons and asks for a
// full retrain.
func (f *Feedback) learn(ctx context.Context, record model.StagingRecord, reason model.FeedbackReason) error {
	if !reason.Trainable() {
		return nil
	}

	example := &model.TrainingExample{
		UserID:  record.UserID,
		Subject: record.Subject,
		Snippet: record.Snippet,
		Sender:  record.Sender,
		Label:   reason.Label(),
	}
	if err := f.store.SaveTrainingExample(ctx, example); err != nil {
		return fmt.Errorf("failed to save training example: %w", err)
	}
	slog.Debug("Saved training example", "label", example.Label, "reason", reason)

	if f.scheduler == nil {
		return nil
	}
	task := service.Task{Kind: service.TaskRetrain, UserID: record.UserID, EnqueuedAt: time.Now().UTC()}
	if err := f.scheduler.Enqueue(ctx, task); err != nil {
		// The example is stored; the next retrain picks it up.
		slog.Warn("Failed to enqueue retrain", "error", err)
	}
	return nil
}
