// Package metrics provides Prometheus metrics for the translator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/satriahrh/jurubahasa/domain/entities"
)

const namespace = "jurubahasa"

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsExpired prometheus.Counter

	CapturesTotal     *prometheus.CounterVec
	CaptureBytes      prometheus.Counter
	CaptureDuration   prometheus.Histogram
	StaleResultsTotal prometheus.Counter

	StageLatency  *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec

	SynthesizedBytes prometheus.Counter

	PublishTotal  *prometheus.CounterVec
	PublishErrors prometheus.Counter
}

// New creates metrics registered on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently held in memory",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of sessions created",
		}),
		SessionsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Total number of idle sessions evicted",
		}),

		CapturesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Total number of captures by outcome",
		}, []string{"outcome"}),
		CaptureBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_bytes_total",
			Help:      "Total bytes of captured audio",
		}),
		CaptureDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_duration_seconds",
			Help:      "Time spent waiting for a capture to finish",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		StaleResultsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Results dropped because a newer capture started",
		}),

		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Latency of each pipeline stage",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures by stage and kind",
		}, []string{"stage", "kind"}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by final phase",
		}, []string{"phase"}),

		SynthesizedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesized_bytes_total",
			Help:      "Total bytes of synthesized audio",
		}),

		PublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_publish_total",
			Help:      "Result events published by status",
		}, []string{"status"}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_publish_errors_total",
			Help:      "Result events that failed to publish",
		}),
	}
}

// ObserveStage records a stage latency
func (m *Metrics) ObserveStage(stage entities.Stage, d time.Duration) {
	if m == nil {
		return
	}
	m.StageLatency.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// RecordFailure counts a stage failure
func (m *Metrics) RecordFailure(failure *entities.StageError) {
	if m == nil || failure == nil {
		return
	}
	m.StageFailures.WithLabelValues(string(failure.Stage), string(failure.Kind)).Inc()
}

// RecordRun counts a finished pipeline run
func (m *Metrics) RecordRun(phase entities.Phase) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(phase)).Inc()
}

// RecordCapture counts a capture outcome
func (m *Metrics) RecordCapture(outcome string, bytes int, d time.Duration) {
	if m == nil {
		return
	}
	m.CapturesTotal.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		m.CaptureBytes.Add(float64(bytes))
	}
	if d > 0 {
		m.CaptureDuration.Observe(d.Seconds())
	}
}

// RecordStale counts a dropped stale result
func (m *Metrics) RecordStale() {
	if m == nil {
		return
	}
	m.StaleResultsTotal.Inc()
}

// RecordSynthesized counts synthesized audio bytes
func (m *Metrics) RecordSynthesized(bytes int) {
	if m == nil {
		return
	}
	m.SynthesizedBytes.Add(float64(bytes))
}

// RecordPublish counts a result event publish attempt
func (m *Metrics) RecordPublish(status string, err error) {
	if m == nil {
		return
	}
	m.PublishTotal.WithLabelValues(status).Inc()
	if err != nil {
		m.PublishErrors.Inc()
	}
}

// SessionOpened tracks a new session
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
}

// SessionClosed tracks a removed session
func (m *Metrics) SessionClosed(expired bool) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	if expired {
		m.SessionsExpired.Inc()
	}
}
