package storage

import (
	"context"
	"testing"
	"time"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createApplication(t *testing.T, store *SQLiteStorage, company string, status model.ApplicationStatus, updated time.Time) *model.TrackedApplication {
	t.Helper()
	app := &model.TrackedApplication{
		UserID:          "u1",
		CompanyName:     company,
		RoleTitle:       "Software Engineer",
		Status:          status,
		StatusUpdatedAt: updated,
		AppliedDate:     updated,
	}
	require.NoError(t, store.CreateApplication(context.Background(), app))
	return app
}

func TestCreateApplication(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	app := &model.TrackedApplication{UserID: "u1", CompanyName: "Acme", RoleTitle: "SWE"}
	require.NoError(t, store.CreateApplication(ctx, app))
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, model.StatusApplied, app.Status)
	assert.Equal(t, model.SourceManual, app.Source)

	got, err := store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Nil(t, got.DeletedAt)

	events, err := store.ListApplicationEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCreated, events[0].EventType)

	ghost := &model.TrackedApplication{UserID: "u1", CompanyName: "Acme", RoleTitle: "SWE", Status: model.StatusGhosted}
	assert.ErrorIs(t, store.CreateApplication(ctx, ghost), common.ErrInvalidTransition)

	_, err = store.GetApplication(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateApplicationStatus(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	app := createApplication(t, store, "Acme", model.StatusApplied, start)

	at := start.Add(48 * time.Hour)
	require.NoError(t, store.UpdateApplicationStatus(ctx, app.ID, model.StatusInterview, at, "interview invite"))

	got, err := store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInterview, got.Status)
	assert.True(t, got.StatusUpdatedAt.Equal(at))

	events, err := store.ListApplicationEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventStatusChanged, events[1].EventType)
	assert.Equal(t, model.StatusApplied, events[1].PreviousStatus)
	assert.Equal(t, model.StatusInterview, events[1].NewStatus)
	assert.Equal(t, "interview invite", events[1].Description)

	// Same status is a no-op.
	require.NoError(t, store.UpdateApplicationStatus(ctx, app.ID, model.StatusInterview, at.Add(time.Hour), ""))
	events, err = store.ListApplicationEvents(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	assert.ErrorIs(t, store.UpdateApplicationStatus(ctx, app.ID, model.StatusGhosted, at, ""), common.ErrInvalidTransition)
	assert.ErrorIs(t, store.UpdateApplicationStatus(ctx, app.ID, "hired", at, ""), ErrInvalidStatus)
	assert.ErrorIs(t, store.UpdateApplicationStatus(ctx, "missing", model.StatusOffer, at, ""), common.ErrNotFound)
}

func TestGhostCandidatesAndMarkGhosted(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -14)

	stale := createApplication(t, store, "Stale", model.StatusApplied, now.AddDate(0, 0, -16))
	staleScreening := createApplication(t, store, "Screening", model.StatusScreening, now.AddDate(0, 0, -30))
	fresh := createApplication(t, store, "Fresh", model.StatusApplied, now.AddDate(0, 0, -3))
	interviewing := createApplication(t, store, "Interviewing", model.StatusInterview, now.AddDate(0, 0, -40))
	deleted := createApplication(t, store, "Deleted", model.StatusApplied, now.AddDate(0, 0, -40))
	require.NoError(t, store.SoftDeleteApplication(ctx, deleted.ID, now))

	candidates, err := store.GhostCandidates(ctx, "u1", cutoff)
	require.NoError(t, err)
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{stale.ID, staleScreening.ID}, ids)
	assert.NotContains(t, ids, fresh.ID)
	assert.NotContains(t, ids, interviewing.ID)

	marked, err := store.MarkGhosted(ctx, *stale, now, 16)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = store.MarkGhosted(ctx, *stale, now, 16)
	require.NoError(t, err)
	assert.False(t, marked, "already ghosted")

	marked, err = store.MarkGhosted(ctx, *deleted, now, 40)
	require.NoError(t, err)
	assert.False(t, marked, "soft-deleted rows are never ghosted")

	got, err := store.GetApplication(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusGhosted, got.Status)
	assert.True(t, got.StatusUpdatedAt.Equal(now))

	events, err := store.ListApplicationEvents(ctx, stale.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventAutoGhosted, events[1].EventType)
	assert.Equal(t, model.StatusApplied, events[1].PreviousStatus)
	assert.Equal(t, 16, events[1].DaysElapsed)

	live, err := store.ListApplications(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, live, 4)
}

func TestRecordApplicationEvent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	app := createApplication(t, store, "Acme", model.StatusApplied, time.Now())

	event := &model.ApplicationEvent{
		ApplicationID: app.ID,
		EventType:     model.EventEmailLinked,
		Title:         "Email linked",
		Description:   "Thanks for applying",
	}
	require.NoError(t, store.RecordApplicationEvent(ctx, event))
	assert.NotEmpty(t, event.ID)

	events, err := store.ListApplicationEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventEmailLinked, events[1].EventType)

	assert.ErrorIs(t, store.RecordApplicationEvent(ctx, &model.ApplicationEvent{ApplicationID: app.ID}), ErrEmptyString)
}

func TestSoftDeleteApplication(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	app := createApplication(t, store, "Acme", model.StatusApplied, time.Now())

	require.NoError(t, store.SoftDeleteApplication(ctx, app.ID, time.Now()))
	assert.ErrorIs(t, store.SoftDeleteApplication(ctx, app.ID, time.Now()), common.ErrNotFound)

	got, err := store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DeletedAt)

	apps, err := store.ListApplications(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestApplicationEventsKeepAppendOrder(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// Caller clocks may run behind the created event's wall-clock stamp.
	past := time.Now().UTC().AddDate(-1, 0, 0)
	app := createApplication(t, store, "Acme", model.StatusApplied, past)

	require.NoError(t, store.UpdateApplicationStatus(ctx, app.ID, model.StatusScreening, past.Add(time.Hour), ""))
	require.NoError(t, store.RecordApplicationEvent(ctx, &model.ApplicationEvent{
		ApplicationID: app.ID,
		EventType:     model.EventEmailLinked,
		Title:         "Email linked",
		CreatedAt:     past.Add(-24 * time.Hour),
	}))
	ok, err := store.MarkGhosted(ctx, model.TrackedApplication{ID: app.ID, UserID: "u1", Status: model.StatusScreening, StatusUpdatedAt: past.Add(time.Hour)}, past.AddDate(0, 0, 20), 20)
	require.NoError(t, err)
	require.True(t, ok)

	events, err := store.ListApplicationEvents(ctx, app.ID)
	require.NoError(t, err)
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	assert.Equal(t, []string{model.EventCreated, model.EventStatusChanged, model.EventEmailLinked, model.EventAutoGhosted}, types)
}
