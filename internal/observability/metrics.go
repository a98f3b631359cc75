// Package observability provides Prometheus metrics for pipeline runs.
// A batch run writes them to a text file when it ends; serve mode also
// exposes them over HTTP.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	// Stage metrics
	StageDuration *prometheus.HistogramVec
	RowsProcessed *prometheus.CounterVec
	StageErrors   *prometheus.CounterVec

	// Run metrics
	PipelineRunsTotal *prometheus.CounterVec
	QualityChecks     *prometheus.GaugeVec
	SampleSize        prometheus.Gauge
	Responders        prometheus.Gauge
	EffectPValue      *prometheus.GaugeVec
	NetImpact         *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "abtest"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),
		RowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_processed_total",
			Help:      "Rows processed by stage",
		}, []string{"stage"}),
		StageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_errors_total",
			Help:      "Stage failures",
		}, []string{"stage"}),

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by status",
		}, []string{"status"}),
		QualityChecks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "checks",
			Help:      "Data quality checks by status",
		}, []string{"status"}),
		SampleSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "experiment",
			Name:      "sample_size",
			Help:      "Orders assigned to a group",
		}),
		Responders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "experiment",
			Name:      "responders",
			Help:      "Treatment customers who topped up their basket",
		}),
		EffectPValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "p_value",
			Help:      "Two-sided p-value of the revenue difference by scope",
		}, []string{"scope"}),
		NetImpact: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "net_impact",
			Help:      "Net revenue impact by rollout strategy",
		}, []string{"strategy"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveStage records the duration and row count of a finished stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration, rows int) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.RowsProcessed.WithLabelValues(stage).Add(float64(rows))
}

// RecordStageError counts a stage failure.
func (m *Metrics) RecordStageError(stage string) {
	m.StageErrors.WithLabelValues(stage).Inc()
}

// RecordRun records a pipeline run outcome.
func (m *Metrics) RecordRun(status string, at time.Time) {
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.LastSuccessfulRun.Set(float64(at.Unix()))
	}
}

// WriteFile writes all metrics in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
