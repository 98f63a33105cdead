package common

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, err: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrInvalidConfig)
		} else {
			require.NoError(t, err)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("staged", "source_id", "m1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"source_id":"m1"`)
}

func TestSetupLoggerRejectsUnknownFormat(t *testing.T) {
	assert.ErrorIs(t, SetupLogger(slog.LevelInfo, "xml"), ErrInvalidConfig)
}
