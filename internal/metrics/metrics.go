// Package metrics exposes Prometheus collectors for the query service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/igvf/catalog-llm/internal/models"
)

const namespace = "catalog_llm"

// Outcome labels.
const (
	OutcomeAnswered      = "answered"
	OutcomeNoCollections = "no_collections"
	OutcomeError         = "error"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RateLimited      prometheus.Counter
	Questions        *prometheus.CounterVec
	AskDuration      prometheus.Histogram
	SelectedCount    prometheus.Histogram
	GenerationTries  prometheus.Histogram
	Tokens           *prometheus.CounterVec
	ComponentHealthy *prometheus.GaugeVec
}

// New creates and registers all collectors, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-client rate limit",
			},
		),

		Questions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ask",
				Name:      "questions_total",
				Help:      "Questions processed by outcome",
			},
			[]string{"outcome"},
		),

		AskDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ask",
				Name:      "duration_seconds",
				Help:      "End-to-end question latency in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
		),

		SelectedCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ask",
				Name:      "selected_collections",
				Help:      "Number of collections chosen by the selector",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),

		GenerationTries: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "chain",
				Name:      "generation_attempts",
				Help:      "AQL executions needed per answered question",
				Buckets:   []float64{1, 2, 3, 4, 5},
			},
		),

		Tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "tokens_total",
				Help:      "Model tokens consumed by kind",
			},
			[]string{"kind"},
		),

		ComponentHealthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "health",
				Name:      "status",
				Help:      "Component status at startup (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.RateLimited,
		m.Questions,
		m.AskDuration,
		m.SelectedCount,
		m.GenerationTries,
		m.Tokens,
		m.ComponentHealthy,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, statusLabel(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// IncRateLimited counts a rejected request.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// ObserveAsk records the outcome of one question.
func (m *Metrics) ObserveAsk(outcome string, selected, attempts int, usage models.Usage, d time.Duration) {
	if m == nil {
		return
	}
	m.Questions.WithLabelValues(outcome).Inc()
	m.AskDuration.Observe(d.Seconds())
	if selected >= 0 {
		m.SelectedCount.Observe(float64(selected))
	}
	if attempts > 0 {
		m.GenerationTries.Observe(float64(attempts))
	}
	m.Tokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	m.Tokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
}

// SetHealthy records a component's startup status.
func (m *Metrics) SetHealthy(component string, ok bool) {
	if m == nil {
		return
	}
	v := 0.0
	if ok {
		v = 1
	}
	m.ComponentHealthy.WithLabelValues(component).Set(v)
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
