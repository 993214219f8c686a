// Package prometheus exports fintrack metrics to Prometheus.
package prometheus

import (
	"time"

	"fintrack/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Collector. It is itself a prometheus.Collector
// so it can be registered in one call.
type Collector struct {
	recomputes        *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	suggestions       *prometheus.CounterVec
	coalesced         prometheus.Counter
	cacheLookups      *prometheus.CounterVec
	circuitState      *prometheus.GaugeVec
	circuitOpens      *prometheus.CounterVec
	exports           *prometheus.CounterVec
	exportDuration    prometheus.Histogram
}

var _ metrics.Collector = (*Collector)(nil)

func NewCollector(namespace string) *Collector {
	return &Collector{
		recomputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recomputes_total",
				Help:      "Report recomputes by outcome",
			},
			[]string{"outcome"},
		),
		recomputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recompute_duration_seconds",
				Help:      "Time to fetch snapshots and compute a report",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"outcome"},
		),
		suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestions_total",
				Help:      "Suggestions emitted by type",
			},
			[]string{"type"},
		),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_coalesced_total",
			Help:      "Change notifications folded into an already pending recompute",
		}),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_lookups_total",
				Help:      "Report cache lookups by result",
			},
			[]string{"result"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Times a circuit breaker opened",
			},
			[]string{"name"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_exports_total",
				Help:      "Report exports by status",
			},
			[]string{"status"},
		),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_export_duration_seconds",
			Help:      "Report export latency",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.recomputes,
		c.recomputeDuration,
		c.suggestions,
		c.coalesced,
		c.cacheLookups,
		c.circuitState,
		c.circuitOpens,
		c.exports,
		c.exportDuration,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, col := range c.collectors() {
		col.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, col := range c.collectors() {
		col.Collect(ch)
	}
}

func (c *Collector) RecordRecompute(outcome string, d time.Duration) {
	c.recomputes.WithLabelValues(outcome).Inc()
	c.recomputeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (c *Collector) RecordSuggestion(suggestionType string) {
	c.suggestions.WithLabelValues(suggestionType).Inc()
}

func (c *Collector) RecordCoalesced() {
	c.coalesced.Inc()
}

func (c *Collector) RecordReportCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

func (c *Collector) RecordCircuitState(name string, state metrics.CircuitState) {
	c.circuitState.WithLabelValues(name).Set(float64(state))
	if state == metrics.CircuitOpen {
		c.circuitOpens.WithLabelValues(name).Inc()
	}
}

func (c *Collector) RecordExport(success bool, d time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	c.exports.WithLabelValues(status).Inc()
	c.exportDuration.Observe(d.Seconds())
}
