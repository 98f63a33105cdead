package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/storage"
)

// stage inserts a pending record for email as the intake sweep would.
func stage(t *testing.T, store *storage.SQLiteStorage, email model.RawEmail) model.StagingRecord {
	t.Helper()
	res := NewOrchestrator().QuickParse(email, testUserEmail)
	require.True(t, res.Staged(), "fixture %s should be staged", email.SourceID)
	record := model.NewStagingRecord(testUser, email, res.Result)
	inserted, err := store.InsertStagingRecord(context.Background(), &record)
	require.NoError(t, err)
	require.True(t, inserted)
	return record
}

func eventTypes(t *testing.T, store *storage.SQLiteStorage, appID string) []string {
	t.Helper()
	events, err := store.ListApplicationEvents(context.Background(), appID)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	existing := &model.TrackedApplication{UserID: testUser, CompanyName: "Acme", RoleTitle: "Backend Engineer"}
	require.NoError(t, store.CreateApplication(ctx, existing))

	globex := model.RawEmail{
		SourceID:    "g1",
		Subject:     "Thank you for applying to Globex",
		Snippet:     "We received your application for Site Reliability Engineer.",
		FromAddress: "jobs@globex.com",
		ReceivedAt:  baseTime,
	}
	interview := interviewEmail("a1")
	roster := model.RawEmail{
		SourceID:    "r1",
		Subject:     "Application received",
		Snippet:     "Thanks for applying to the newsletter program.",
		FromAddress: "news@initech.com",
		ReceivedAt:  baseTime.Add(2 * time.Hour),
	}
	stalled := model.RawEmail{
		SourceID:    "s1",
		Subject:     "Your application was received",
		Snippet:     "We will review it shortly.",
		FromAddress: "careers@hooli.com",
		ReceivedAt:  baseTime.Add(3 * time.Hour),
	}
	for _, e := range []model.RawEmail{globex, interview, roster, stalled} {
		stage(t, store, e)
	}

	d := &fakeDecider{decisions: map[string]model.CommitDecision{
		globex.Subject: {
			Action:  model.ActionAddToTracker,
			Company: "Globex",
			Role:    "Site Reliability Engineer",
			Status:  model.StatusApplied,
		},
		interview.Subject: {
			Action:  model.ActionAddToTracker,
			Company: "Acme",
			Status:  model.StatusInterview,
		},
		roster.Subject: model.Discard("not a job application", false),
	}}
	committer := NewCommitter(store, NewOrchestrator(WithDecider(d)), nil, testUser)

	report, err := committer.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Discarded)
	assert.Equal(t, 1, report.Failed)

	apps, err := store.ListApplications(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	byCompany := map[string]model.TrackedApplication{}
	for _, a := range apps {
		byCompany[a.CompanyName] = a
	}

	created := byCompany["Globex"]
	assert.Equal(t, "Site Reliability Engineer", created.RoleTitle)
	assert.Equal(t, model.SourceGmailAI, created.Source)
	assert.Equal(t, model.StatusApplied, created.Status)

	updated := byCompany["Acme"]
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, model.StatusInterview, updated.Status)
	assert.ElementsMatch(t,
		[]string{model.EventCreated, model.EventEmailLinked, model.EventStatusChanged},
		eventTypes(t, store, existing.ID))

	pending, err := store.ListStagingRecords(ctx, testUser, model.StagingPending)
	require.NoError(t, err)
	require.Len(t, pending, 1, "the degraded decision stays pending")
	assert.Equal(t, "s1", pending[0].SourceID)

	rejected, err := store.ListStagingRecords(ctx, testUser, model.StagingRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "r1", rejected[0].SourceID)

	confirmed, err := store.ListStagingRecords(ctx, testUser, model.StagingConfirmed)
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)
}

func TestProcessPendingWithoutDecider(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	stage(t, store, interviewEmail("a1"))

	report, err := NewCommitter(store, NewOrchestrator(), nil, testUser).ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	pending, err := store.ListStagingRecords(ctx, testUser, model.StagingPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	apps, err := store.ListApplications(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestMatchedEmailNeverRegressesStatus(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	app := &model.TrackedApplication{UserID: testUser, CompanyName: "Acme", RoleTitle: "Engineer", Status: model.StatusInterview}
	require.NoError(t, store.CreateApplication(ctx, app))

	email := interviewEmail("a1")
	stage(t, store, email)
	d := &fakeDecider{decisions: map[string]model.CommitDecision{
		email.Subject: {Action: model.ActionAddToTracker, Company: "Acme", Status: model.StatusApplied},
	}}

	report, err := NewCommitter(store, NewOrchestrator(WithDecider(d)), nil, testUser).ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	got, err := store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInterview, got.Status)
	assert.Equal(t, []string{model.EventCreated, model.EventEmailLinked}, eventTypes(t, store, app.ID))

	apps, err := store.ListApplications(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, apps, 1, "a matched email must not create a second application")
}

func TestProcessPendingCancelled(t *testing.T) {
	store := createTestStore(t)
	stage(t, store, interviewEmail("a1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCommitter(store, NewOrchestrator(), nil, testUser).ProcessPending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
