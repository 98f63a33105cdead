package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

// DefaultMaxResults bounds one intake sweep.
const DefaultMaxResults = 50

// SyncStore is the persistence an intake sweep needs.
type SyncStore interface {
	service.StagingStore
	service.SyncStateStore
}

// SyncOptions configures a Syncer.
type SyncOptions struct {
	// Progress, when set, is called after each message.
	Progress   func(done, total int)
	UserID     string
	UserEmail  string
	MaxResults int
	// Enrich enables extraction-only LLM calls for weak results.
	Enrich bool
}

// Syncer runs intake sweeps for one user.
type Syncer struct {
	mailbox service.Mailbox
	store   SyncStore
	orch    *Orchestrator
	opts    SyncOptions
}

// NewSyncer creates a syncer.
func NewSyncer(mailbox service.Mailbox, store SyncStore, orch *Orchestrator, opts SyncOptions) *Syncer {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Syncer{mailbox: mailbox, store: store, orch: orch, opts: opts}
}

// Sync fetches messages after the stored bookmark and stages the job-related
// ones, one at a time and in order. Each insert is its own transaction, so a
// cancelled sweep keeps everything staged so far and a partial report. The
// bookmark only advances past messages that were fully handled.
func (s *Syncer) Sync(ctx context.Context) (service.SyncReport, error) {
	var report service.SyncReport
	if s.opts.UserID == "" {
		return report, fmt.Errorf("sync requires a user id")
	}

	marker, err := s.store.GetSyncMarker(ctx, s.opts.UserID)
	if err != nil {
		return report, err
	}
	report.Marker = marker

	emails, err := s.mailbox.FetchRecent(ctx, marker, s.opts.MaxResults)
	if err != nil {
		return report, fmt.Errorf("failed to fetch messages: %w", err)
	}
	report.Fetched = len(emails)
	slog.Info("Fetched messages", "user_id", s.opts.UserID, "count", len(emails), "after", marker)

	advance := true
	for i, email := range emails {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		result, err := s.handle(ctx, email)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			report.Cancelled = true
		case err != nil:
			report.Failed++
			advance = false
			slog.Error("Failed to stage message", "source_id", email.SourceID, "error", err)
		default:
			switch result {
			case "staged":
				report.Staged++
			case "duplicate":
				report.Duplicates++
			case "filtered":
				report.Filtered++
			}
		}
		if report.Cancelled {
			break
		}
		metrics.IncrementSync(result)

		if advance {
			report.Marker = email.SourceID
		}
		if s.opts.Progress != nil {
			s.opts.Progress(i+1, len(emails))
		}
	}

	if report.Marker != marker {
		// Use a fresh context: the bookmark must survive cancellation.
		if err := s.store.SetSyncMarker(context.WithoutCancel(ctx), s.opts.UserID, report.Marker); err != nil {
			return report, fmt.Errorf("failed to save sync marker: %w", err)
		}
	}

	slog.Info("Sync complete",
		"user_id", s.opts.UserID,
		"staged", report.Staged,
		"duplicates", report.Duplicates,
		"filtered", report.Filtered,
		"failed", report.Failed,
		"cancelled", report.Cancelled)
	return report, nil
}

func (s *Syncer) handle(ctx context.Context, email model.RawEmail) (string, error) {
	exists, err := s.store.StagingExists(ctx, s.opts.UserID, email.SourceID)
	if err != nil {
		return "failed", err
	}
	if exists {
		return "duplicate", nil
	}

	parsed := s.orch.QuickParse(email, s.opts.UserEmail)
	if s.opts.Enrich {
		parsed = s.orch.Enrich(ctx, email, parsed)
	}
	if !parsed.Staged() {
		return "filtered", nil
	}

	record := model.NewStagingRecord(s.opts.UserID, email, parsed.Result)
	inserted, err := s.store.InsertStagingRecord(ctx, &record)
	if err != nil {
		return "failed", err
	}
	if !inserted {
		return "duplicate", nil
	}
	slog.Info("Staged message",
		"source_id", email.SourceID,
		"category", record.Category,
		"company", record.Company,
		"confidence", record.Confidence)
	return "staged", nil
}
