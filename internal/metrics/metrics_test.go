package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.CountRun("success")
	r.CountRun("success")
	r.CountRun("failed")
	r.CountWarning("S1", "NO_OVERLAP")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.InstrumentRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.InstrumentRuns.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Warnings.WithLabelValues("S1", "NO_OVERLAP")))
}

func TestRegistry_Gauges(t *testing.T) {
	r := NewRegistry()

	r.SetRows("SP500", "adjusted", 250)
	assert.Equal(t, 250.0, testutil.ToFloat64(r.SeriesRows.WithLabelValues("SP500", "adjusted")))

	r.ObserveStage("S1", true, 10*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(r.StageDuration))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.CountRun("no_data")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `rollstitch_instrument_runs_total{status="no_data"} 1`))
}
