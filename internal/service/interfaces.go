// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/krishhsuri/Orbit/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	StagingStore
	ApplicationStore
	TrainingStore
	SyncStateStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// StagingStore persists staging records. InsertStagingRecord reports
// inserted=false without error when (UserID, SourceID) already exists.
type StagingStore interface {
	InsertStagingRecord(ctx context.Context, record *model.StagingRecord) (inserted bool, err error)
	StagingExists(ctx context.Context, userID, sourceID string) (bool, error)
	GetStagingRecord(ctx context.Context, id string) (*model.StagingRecord, error)
	ListStagingRecords(ctx context.Context, userID string, status model.StagingStatus) ([]model.StagingRecord, error)
	UpdateStagingStatus(ctx context.Context, id string, status model.StagingStatus) error
	UpdateStagingEntities(ctx context.Context, id string, entities model.Entities) error
}

// ApplicationStore persists tracked applications and their audit log.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *model.TrackedApplication) error
	GetApplication(ctx context.Context, id string) (*model.TrackedApplication, error)
	ListApplications(ctx context.Context, userID string) ([]model.TrackedApplication, error)
	UpdateApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus, at time.Time, note string) error
	SoftDeleteApplication(ctx context.Context, id string, at time.Time) error
	ListApplicationEvents(ctx context.Context, applicationID string) ([]model.ApplicationEvent, error)
	RecordApplicationEvent(ctx context.Context, event *model.ApplicationEvent) error

	// GhostCandidates returns live applications in a ghostable status whose
	// status timestamp is older than cutoff.
	GhostCandidates(ctx context.Context, userID string, cutoff time.Time) ([]model.TrackedApplication, error)
	// MarkGhosted transitions one application to ghosted and appends the audit
	// event atomically. It reports false when the application no longer matches
	// the ghost selection filter.
	MarkGhosted(ctx context.Context, app model.TrackedApplication, at time.Time, daysSince int) (bool, error)
}

// TrainingStore persists user feedback for the learned filter.
type TrainingStore interface {
	SaveTrainingExample(ctx context.Context, example *model.TrainingExample) error
	ListTrainingExamples(ctx context.Context) ([]model.TrainingExample, error)
	CountTrainingExamples(ctx context.Context) (int, error)
}

// SyncStateStore keeps the per-user intake bookmark.
type SyncStateStore interface {
	GetSyncMarker(ctx context.Context, userID string) (string, error)
	SetSyncMarker(ctx context.Context, userID, marker string) error
}

// Mailbox is the inbox collaborator. FetchRecent returns at most maxCount
// messages received after afterMarker, ordered oldest first.
type Mailbox interface {
	FetchRecent(ctx context.Context, afterMarker string, maxCount int) ([]model.RawEmail, error)
}

// TaskKind identifies deferred work.
type TaskKind string

// Task kinds.
const (
	TaskCommitPending TaskKind = "commit_pending"
	TaskGhostSweep    TaskKind = "ghost_sweep"
	TaskRetrain       TaskKind = "retrain"
)

// Task is a unit of deferred work.
type Task struct {
	EnqueuedAt time.Time `json:"enqueued_at"`
	Kind       TaskKind  `json:"kind"`
	UserID     string    `json:"user_id,omitempty"`
	Attempt    int       `json:"attempt"`
}

// TaskHandler executes one task. A non-nil error asks the scheduler to retry.
type TaskHandler func(ctx context.Context, task Task) error

// Scheduler runs tasks later and retries them on failure.
type Scheduler interface {
	Enqueue(ctx context.Context, task Task) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// SyncReport summarizes one intake sweep.
type SyncReport struct {
	Marker     string
	Fetched    int
	Staged     int
	Duplicates int
	Filtered   int
	Failed     int
	Cancelled  bool
}

// CommitReport summarizes one deep-process run.
type CommitReport struct {
	Processed int
	Added     int
	Updated   int
	Discarded int
	Failed    int
}
