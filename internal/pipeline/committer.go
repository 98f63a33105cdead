package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krishhsuri/Orbit/internal/matching"
	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

// CommitStore is the persistence a deep-process run needs.
type CommitStore interface {
	service.StagingStore
	service.ApplicationStore
}

// Committer turns pending staging records into tracked applications using
// the LLM commit decision.
type Committer struct {
	store   CommitStore
	orch    *Orchestrator
	tracker *tracker
	userID  string
}

// NewCommitter creates a committer for userID. A nil matcher uses the default.
func NewCommitter(store CommitStore, orch *Orchestrator, matcher *matching.Matcher, userID string) *Committer {
	return &Committer{
		store:   store,
		orch:    orch,
		tracker: newTracker(store, orch, matcher),
		userID:  userID,
	}
}

// ProcessPending decides every pending record. Failures are counted, not
// returned: a degraded decision leaves its record pending for the next run.
// The error is non-nil only when the pending list cannot be loaded or ctx ends.
func (c *Committer) ProcessPending(ctx context.Context) (service.CommitReport, error) {
	var report service.CommitReport

	pending, err := c.store.ListStagingRecords(ctx, c.userID, model.StagingPending)
	if err != nil {
		return report, fmt.Errorf("failed to list pending records: %w", err)
	}
	slog.Info("Processing pending records", "user_id", c.userID, "count", len(pending))

	for _, record := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		result, err := c.commit(ctx, record)
		if err != nil {
			slog.Error("Failed to commit staging record", "id", record.ID, "error", err)
			result = "failed"
		}
		metrics.IncrementCommit(result)
		switch result {
		case "added":
			report.Added++
		case "updated":
			report.Updated++
		case "discarded":
			report.Discarded++
		default:
			report.Failed++
		}
	}

	slog.Info("Deep process complete",
		"user_id", c.userID,
		"added", report.Added,
		"updated", report.Updated,
		"discarded", report.Discarded,
		"failed", report.Failed)
	return report, nil
}

func (c *Committer) commit(ctx context.Context, record model.StagingRecord) (string, error) {
	email := record.Email()
	decision := c.orch.ProcessWithLLM(ctx, email)

	if decision.Degraded {
		slog.Warn("Decision degraded, leaving record pending", "id", record.ID, "reason", decision.Reason)
		return "failed", nil
	}

	if decision.Action == model.ActionDiscard {
		if err := c.store.UpdateStagingStatus(ctx, record.ID, model.StagingRejected); err != nil {
			return "failed", err
		}
		slog.Info("Discarded staging record", "id", record.ID, "reason", decision.Reason)
		return "discarded", nil
	}

	out, err := c.tracker.record(ctx, candidate{
		email:   email,
		userID:  record.UserID,
		company: firstNonEmpty(decision.Company, record.Company),
		role:    firstNonEmpty(decision.Role, record.Role),
		jobURL:  record.JobURL,
		source:  model.SourceGmailAI,
		status:  decision.Status,
	})
	if err != nil {
		return "failed", err
	}
	if err := c.store.UpdateStagingStatus(ctx, record.ID, model.StagingConfirmed); err != nil {
		return "failed", err
	}
	if out.Match.Found() {
		return "updated", nil
	}
	return "added", nil
}
