package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/storage"
)

// setupEnv points orbit at a temporary config directory with no LLM and
// writes an inbox fixture, returning its path and the database path.
func setupEnv(t *testing.T) (inbox, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("ORBIT_LLM_API_KEY", "")
	t.Setenv("ORBIT_AMQP_URL", "")
	t.Setenv("ORBIT_USER_ID", "user-1")

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	emails := []model.RawEmail{
		{
			SourceID:    "e1",
			Subject:     "Your application was sent to Acme",
			BodyPreview: "Acme Backend Engineer. Applied on February 3.",
			FromAddress: "jobs-noreply@linkedin.com",
			ReceivedAt:  base,
		},
		{
			SourceID:    "e2",
			Subject:     "Flash SALE ends tonight",
			Snippet:     "Everything must go.",
			FromAddress: "hello@shop.example",
			ReceivedAt:  base.Add(time.Hour),
		},
	}
	data, err := json.Marshal(emails)
	require.NoError(t, err)
	inbox = filepath.Join(dir, "inbox.json")
	require.NoError(t, os.WriteFile(inbox, data, 0o600))
	return inbox, filepath.Join(dir, "orbit", "orbit.db")
}

func runOrbit(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile = ""

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func pendingIDs(t *testing.T, dbPath string) []string {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	records, err := store.ListStagingRecords(context.Background(), "user-1", model.StagingPending)
	require.NoError(t, err)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func TestSyncReviewFlow(t *testing.T) {
	inbox, dbPath := setupEnv(t)

	out, err := runOrbit(t, "sync", "--from", inbox, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Fetched:    2")
	assert.Contains(t, out, "Filtered:   1")

	// Rerunning finds nothing new past the bookmark.
	out, err = runOrbit(t, "sync", "--from", inbox, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Fetched:    0")

	out, err = runOrbit(t, "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "Your application was sent to Acme")

	ids := pendingIDs(t, dbPath)
	require.Len(t, ids, 1)

	out, err = runOrbit(t, "confirm", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Tracking")
	assert.Empty(t, pendingIDs(t, dbPath))

	out, err = runOrbit(t, "apps")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")

	_, err = runOrbit(t, "confirm", ids[0])
	require.Error(t, err)
}

func TestRejectCommand(t *testing.T) {
	inbox, dbPath := setupEnv(t)
	_, err := runOrbit(t, "sync", "--from", inbox, "--quiet")
	require.NoError(t, err)
	ids := pendingIDs(t, dbPath)
	require.Len(t, ids, 1)

	_, err = runOrbit(t, "reject", ids[0], "--reason", "confirmed")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)

	out, err := runOrbit(t, "reject", ids[0], "--reason", "promotional")
	require.NoError(t, err)
	assert.Contains(t, out, "Rejected: promotional")
	assert.Empty(t, pendingIDs(t, dbPath))
}

func TestClassifyCommand(t *testing.T) {
	setupEnv(t)

	out, err := runOrbit(t, "classify", "--from", "Acme Talent <talent@acme.com>", "--subject", "Interview invitation",
		"--snippet", "We'd like to schedule an interview with you next week.")
	require.NoError(t, err)
	assert.Contains(t, out, "interview_invite")
	assert.Contains(t, out, "would be staged")

	out, err = runOrbit(t, "classify", "--from", "hello@shop.example", "--subject", "Flash SALE ends tonight")
	require.NoError(t, err)
	assert.Contains(t, out, "quick_filter")
	assert.Contains(t, out, "would be filtered")
}

func TestCommandsNeedingLLM(t *testing.T) {
	setupEnv(t)

	_, err := runOrbit(t, "process")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = runOrbit(t, "process", "--queue")
	require.ErrorAs(t, err, &userErr)
}

func TestGhostPreviewAndTrain(t *testing.T) {
	setupEnv(t)

	out, err := runOrbit(t, "ghost", "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, "No applications silent for 14 days")

	out, err = runOrbit(t, "train")
	require.NoError(t, err)
	assert.Contains(t, out, "0 example(s) stored")
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("ORBIT_LLM_PROVIDER", "anthropic")

	_, err := runOrbit(t, "version")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestVersion(t *testing.T) {
	setupEnv(t)
	out, err := runOrbit(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "orbit dev")
}

func TestExportNeedsSheets(t *testing.T) {
	setupEnv(t)

	_, err := runOrbit(t, "apps", "export")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
