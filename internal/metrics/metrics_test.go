package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCounters(t *testing.T) {
	before := value(t, SyncEmails.WithLabelValues("staged"))
	IncrementSync("staged")
	IncrementSync("staged")
	assert.InDelta(t, before+2, value(t, SyncEmails.WithLabelValues("staged")), 1e-9)

	ghosts := value(t, GhostTransitions)
	AddGhostTransitions(3)
	assert.InDelta(t, ghosts+3, value(t, GhostTransitions), 1e-9)
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordLLMCall("decide", "ok", 120*time.Millisecond)
	RecordQuickParse(2 * time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "orbit_llm_call_duration_seconds")
	assert.Contains(t, body, "orbit_quick_parse_duration_seconds")
}
