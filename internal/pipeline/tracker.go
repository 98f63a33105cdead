package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/krishhsuri/Orbit/internal/matching"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

// Fallbacks for applications created without extracted entities.
const (
	UnknownCompany = "Unknown Company"
	UnknownRole    = "Unknown Role"
)

// candidate is what a confirmed staging record asks the tracker to record.
type candidate struct {
	email   model.RawEmail
	userID  string
	company string
	role    string
	jobURL  string
	source  string
	status  model.ApplicationStatus
}

// tracked is the outcome of recording a candidate.
type tracked struct {
	Application model.TrackedApplication
	Match       matching.Match
	Updated     bool
}

// tracker links candidates to existing applications or creates new ones.
type tracker struct {
	store   service.ApplicationStore
	orch    *Orchestrator
	matcher *matching.Matcher
	now     func() time.Time
}

func newTracker(store service.ApplicationStore, orch *Orchestrator, matcher *matching.Matcher) *tracker {
	if matcher == nil {
		matcher = matching.NewMatcher()
	}
	return &tracker{store: store, orch: orch, matcher: matcher, now: time.Now}
}

// record matches c against the user's live applications. A match links the
// email and applies an allowed status change; otherwise a new application is
// created.
func (t *tracker) record(ctx context.Context, c candidate) (tracked, error) {
	apps, err := t.store.ListApplications(ctx, c.userID)
	if err != nil {
		return tracked{}, fmt.Errorf("failed to load applications: %w", err)
	}

	signals := t.orch.Analyze(c.email)
	if c.company != "" {
		signals.Entities.Organizations = append(signals.Entities.Organizations, c.company)
	}

	if m := t.matcher.Match(c.email, apps, &signals); m.Found() {
		return t.update(ctx, c, apps, m)
	}

	app := &model.TrackedApplication{
		UserID:      c.userID,
		CompanyName: firstNonEmpty(c.company, UnknownCompany),
		RoleTitle:   firstNonEmpty(c.role, UnknownRole),
		JobURL:      c.jobURL,
		Source:      c.source,
		Status:      c.status,
		AppliedDate: c.email.ReceivedAt,
	}
	if app.Status == model.StatusGhosted || !app.Status.Valid() {
		app.Status = model.StatusApplied
	}
	if err := t.store.CreateApplication(ctx, app); err != nil {
		return tracked{}, fmt.Errorf("failed to create application: %w", err)
	}
	slog.Info("Created application", "company", app.CompanyName, "role", app.RoleTitle, "status", app.Status)
	return tracked{Application: *app}, nil
}

func (t *tracker) update(ctx context.Context, c candidate, apps []model.TrackedApplication, m matching.Match) (tracked, error) {
	var app model.TrackedApplication
	for _, a := range apps {
		if a.ID == m.ApplicationID {
			app = a
			break
		}
	}

	out := tracked{Application: app, Match: m}
	if err := t.store.RecordApplicationEvent(ctx, &model.ApplicationEvent{
		ApplicationID: app.ID,
		EventType:     model.EventEmailLinked,
		Title:         "Email linked",
		Description:   c.email.Subject,
	}); err != nil {
		return out, err
	}

	// Applied carries no progress information, so it never overwrites a later stage.
	if c.status == "" || c.status == model.StatusApplied || c.status == app.Status {
		return out, nil
	}
	if err := app.Status.CanTransition(c.status); err != nil {
		slog.Info("Skipping automatic status change", "application_id", app.ID, "from", app.Status, "to", c.status, "reason", err)
		return out, nil
	}

	note := fmt.Sprintf("Matched email %q (confidence %.2f)", c.email.Subject, m.Confidence)
	if err := t.store.UpdateApplicationStatus(ctx, app.ID, c.status, t.now(), note); err != nil {
		return out, fmt.Errorf("failed to update application status: %w", err)
	}
	out.Application.Status = c.status
	out.Updated = true
	slog.Info("Updated application from email", "application_id", app.ID, "status", c.status, "match", m.Confidence)
	return out, nil
}
