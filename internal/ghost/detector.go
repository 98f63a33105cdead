// Package ghost marks applications that have gone without a response for too
// long as ghosted.
package ghost

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/model"
)

// DefaultThresholdDays is the silence after which an application is ghosted.
const DefaultThresholdDays = 14

// Store is the persistence the detector needs.
type Store interface {
	GhostCandidates(ctx context.Context, userID string, cutoff time.Time) ([]model.TrackedApplication, error)
	MarkGhosted(ctx context.Context, app model.TrackedApplication, at time.Time, daysSince int) (bool, error)
}

// Detector applies the staleness rule.
type Detector struct {
	store         Store
	now           func() time.Time
	thresholdDays int
}

// Option configures a Detector.
type Option func(*Detector)

// WithThresholdDays overrides DefaultThresholdDays. Non-positive values are ignored.
func WithThresholdDays(days int) Option {
	return func(d *Detector) {
		if days > 0 {
			d.thresholdDays = days
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// NewDetector creates a detector over store.
func NewDetector(store Store, opts ...Option) *Detector {
	d := &Detector{
		store:         store,
		now:           time.Now,
		thresholdDays: DefaultThresholdDays,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ThresholdDays returns the configured threshold.
func (d *Detector) ThresholdDays() int {
	return d.thresholdDays
}

// Preview returns the applications a sweep would ghost, without changing them.
func (d *Detector) Preview(ctx context.Context, userID string) ([]model.GhostEvent, error) {
	now := d.now().UTC()
	candidates, err := d.candidates(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	events := make([]model.GhostEvent, 0, len(candidates))
	for _, app := range candidates {
		events = append(events, ghostEvent(app, now))
	}
	return events, nil
}

// Sweep ghosts every stale application of userID and returns what changed.
// Rows that changed since they were selected are skipped, so concurrent or
// repeated sweeps never ghost an application twice.
func (d *Detector) Sweep(ctx context.Context, userID string) ([]model.GhostEvent, error) {
	now := d.now().UTC()
	candidates, err := d.candidates(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	var events []model.GhostEvent
	for _, app := range candidates {
		if err := ctx.Err(); err != nil {
			return events, err
		}

		event := ghostEvent(app, now)
		marked, err := d.store.MarkGhosted(ctx, app, now, event.DaysSince)
		if err != nil {
			return events, fmt.Errorf("failed to ghost application %s: %w", app.ID, err)
		}
		if !marked {
			slog.Debug("Application changed before it could be ghosted", "application_id", app.ID)
			continue
		}

		slog.Info("Marked as ghosted",
			"company", app.CompanyName,
			"role", app.RoleTitle,
			"previous_status", app.Status,
			"days", event.DaysSince)
		events = append(events, event)
	}

	if len(events) > 0 {
		metrics.AddGhostTransitions(len(events))
		slog.Info("Ghost sweep complete", "user_id", userID, "ghosted", len(events))
	}
	return events, nil
}

func (d *Detector) candidates(ctx context.Context, userID string, now time.Time) ([]model.TrackedApplication, error) {
	cutoff := now.AddDate(0, 0, -d.thresholdDays)
	apps, err := d.store.GhostCandidates(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to select ghost candidates: %w", err)
	}

	// The store is trusted for the filter, but status and deletion are
	// re-checked so no other status can ever be ghosted.
	out := apps[:0]
	for _, app := range apps {
		if app.Status.Ghostable() && app.DeletedAt == nil && app.StatusUpdatedAt.Before(cutoff) {
			out = append(out, app)
		}
	}
	return out, nil
}

func ghostEvent(app model.TrackedApplication, now time.Time) model.GhostEvent {
	return model.GhostEvent{
		ApplicationID:  app.ID,
		CompanyName:    app.CompanyName,
		RoleTitle:      app.RoleTitle,
		PreviousStatus: app.Status,
		DaysSince:      int(now.Sub(app.StatusUpdatedAt).Hours() / 24),
	}
}
