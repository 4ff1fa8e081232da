package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "scraper"

// Metrics holds the search collectors. All of them live on Registry, never
// on the global default registry, so every Scraper can be scraped apart.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	items           prometheus.Counter
	retries         prometheus.Counter
	errors          *prometheus.CounterVec
	pages           *prometheus.CounterVec
	fieldMisses     *prometheus.CounterVec
	containerPanics prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help})
	}
	counterVec := func(name, help, label string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help}, []string{label})
	}

	return &Metrics{
		Registry:    reg,
		requests:    counterVec("requests_total", "Fetch attempts by outcome (success, status, blocked, error).", "outcome"),
		items:       counter("items_scraped_total", "Products extracted from result pages."),
		retries:     counter("retries_total", "Fetch attempts repeated after a failed one."),
		errors:      counterVec("errors_total", "Failed fetch attempts by error type.", "error_type"),
		pages:       counterVec("pages_total", "Result pages by final fetch status.", "status"),
		fieldMisses: counterVec("field_misses_total", "Product fields left absent by extraction.", "field"),
		containerPanics: counter("container_panics_total",
			"Product containers skipped after a recovered panic."),
		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of single fetch attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

func (m *Metrics) IncRequest(outcome string) {
	if m != nil {
		m.requests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.requestDuration.Observe(d.Seconds())
	}
}

// AddItems ignores non-positive counts.
func (m *Metrics) AddItems(n int) {
	if m != nil && n > 0 {
		m.items.Add(float64(n))
	}
}

func (m *Metrics) IncRetries() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) IncError(errorType string) {
	if m != nil {
		m.errors.WithLabelValues(errorType).Inc()
	}
}

func (m *Metrics) IncPage(status string) {
	if m != nil {
		m.pages.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncFieldMiss(field string) {
	if m != nil {
		m.fieldMisses.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) IncContainerPanic() {
	if m != nil {
		m.containerPanics.Inc()
	}
}
