package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus collectors of the pipeline
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	// Stage duration by stage and result
	StageDuration *prometheus.HistogramVec

	// Instrument runs by status (success, failed, no_data)
	InstrumentRuns *prometheus.CounterVec

	// Data-quality warnings by stage and code
	Warnings *prometheus.CounterVec

	// Rows written per instrument and output
	SeriesRows *prometheus.GaugeVec

	// Batch state
	ActiveRuns   prometheus.Gauge
	LastBatchEnd prometheus.Gauge
}

// NewRegistry creates and registers all collectors on a private registry
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rollstitch_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"stage", "result"},
		),

		InstrumentRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollstitch_instrument_runs_total",
				Help: "Total instrument pipeline runs by status",
			},
			[]string{"status"},
		),

		Warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollstitch_warnings_total",
				Help: "Data-quality warnings by stage and code",
			},
			[]string{"stage", "code"},
		),

		SeriesRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rollstitch_series_rows",
				Help: "Rows in the latest persisted series",
			},
			[]string{"instrument", "series"},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rollstitch_active_runs",
				Help: "Instrument runs in progress",
			},
		),

		LastBatchEnd: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rollstitch_last_batch_timestamp_seconds",
				Help: "Unix time the last batch finished",
			},
		),
	}

	r.reg.MustRegister(
		r.StageDuration,
		r.InstrumentRuns,
		r.Warnings,
		r.SeriesRows,
		r.ActiveRuns,
		r.LastBatchEnd,
	)
	return r
}

// ObserveStage records one stage duration
func (r *Registry) ObserveStage(stage string, success bool, d time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	r.StageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

// CountRun records a finished instrument run
func (r *Registry) CountRun(status string) {
	r.InstrumentRuns.WithLabelValues(status).Inc()
}

// CountWarning records one data-quality warning
func (r *Registry) CountWarning(stage, code string) {
	r.Warnings.WithLabelValues(stage, code).Inc()
}

// SetRows records the size of a persisted series
func (r *Registry) SetRows(instrument, series string, rows int) {
	r.SeriesRows.WithLabelValues(instrument, series).Set(float64(rows))
}

// Gatherer exposes the registry for tests
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
