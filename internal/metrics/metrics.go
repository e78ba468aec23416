// Package metrics exposes pipeline counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	productsProcessed  *prometheus.CounterVec
	suggestions        *prometheus.CounterVec
	statusTransitions  *prometheus.CounterVec
	batchDuration      *prometheus.HistogramVec
	forecastConfidence prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		productsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stocksense",
				Name:      "products_processed_total",
				Help:      "Products processed by a pipeline job, by outcome",
			},
			[]string{"job", "outcome"},
		),
		suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stocksense",
				Name:      "reorder_suggestions_total",
				Help:      "Pending reorder suggestions written, by urgency",
			},
			[]string{"urgency"},
		),
		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stocksense",
				Name:      "suggestion_status_transitions_total",
				Help:      "Reorder suggestion status changes, by target status",
			},
			[]string{"status"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stocksense",
				Name:      "batch_duration_seconds",
				Help:      "Wall time of a pipeline batch",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"job"},
		),
		forecastConfidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "stocksense",
				Name:      "forecast_confidence",
				Help:      "Confidence of generated forecasts",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.productsProcessed,
		m.suggestions,
		m.statusTransitions,
		m.batchDuration,
		m.forecastConfidence,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ProductsProcessed(job, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.productsProcessed.WithLabelValues(job, outcome).Add(float64(n))
}

func (m *Metrics) SuggestionWritten(urgency string) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(urgency).Inc()
}

func (m *Metrics) StatusTransition(status string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveBatch(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *Metrics) ObserveConfidence(c float64) {
	if m == nil {
		return
	}
	m.forecastConfidence.Observe(c)
}
