// Package metrics exports chat pipeline measurements in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "library"
	subsystem = "chat"
)

// ChatMetrics implements the orchestrator's Recorder and the catalog
// service's lookup counter on a private registry.
type ChatMetrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	stageFailures  *prometheus.CounterVec
	frames         *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	activeStreams  prometheus.Gauge
	catalogLookups *prometheus.CounterVec
}

func NewChatMetrics() *ChatMetrics {
	registry := prometheus.NewRegistry()

	m := &ChatMetrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Chat turns by intent and outcome",
		}, []string{"intent", "outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_failures_total",
			Help:      "Aborted chat turns by failing stage and failure kind",
		}, []string{"stage", "kind"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_frames_total",
			Help:      "Upstream frames by parse outcome",
		}, []string{"type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Chat turn duration from acceptance to the terminal event",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"intent"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_streams",
			Help:      "Chat turns currently in flight",
		}),
		catalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "catalog_lookups_total",
			Help:      "Catalog lookups by where they were answered",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.requests,
		m.stageFailures,
		m.frames,
		m.duration,
		m.activeStreams,
		m.catalogLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *ChatMetrics) TurnStarted() {
	m.activeStreams.Inc()
}

func (m *ChatMetrics) TurnFinished(intent, outcome string, elapsed time.Duration) {
	if intent == "" {
		intent = "none"
	}
	m.activeStreams.Dec()
	m.requests.WithLabelValues(intent, outcome).Inc()
	m.duration.WithLabelValues(intent).Observe(elapsed.Seconds())
}

func (m *ChatMetrics) StageFailed(stage, kind string) {
	m.stageFailures.WithLabelValues(stage, kind).Inc()
}

func (m *ChatMetrics) FrameParsed(outcome string) {
	m.frames.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) CatalogLookup(result string) {
	m.catalogLookups.WithLabelValues(result).Inc()
}

func (m *ChatMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *ChatMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
