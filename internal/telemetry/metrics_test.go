package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler(t *testing.T) {
	Heartbeats.WithLabelValues("ok").Inc()
	ObserveStore("read_all", time.Now())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	MetricsHandler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.True(t, strings.Contains(body, "rollcall_heartbeats_total"))
	require.True(t, strings.Contains(body, "rollcall_store_duration_seconds"))
}

func TestConflictsCounter(t *testing.T) {
	before := testutil.ToFloat64(Conflicts.WithLabelValues("test"))
	Conflicts.WithLabelValues("test").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(Conflicts.WithLabelValues("test")))
}
