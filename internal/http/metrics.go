package http

import (
	"bills/internal/core"

	"github.com/prometheus/client_golang/prometheus"
)

// selectorMetrics records the outcome of each affordable computation.
type selectorMetrics struct {
	runs        prometheus.Counter
	selected    prometheus.Histogram
	unparseable prometheus.Gauge
	suspicious  prometheus.Counter
	rateLimited prometheus.Counter
}

func newSelectorMetrics(reg prometheus.Registerer) *selectorMetrics {
	m := &selectorMetrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bills",
			Name:      "affordable_runs_total",
			Help:      "Budget fit selections computed.",
		}),
		selected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bills",
			Name:      "affordable_selected_bills",
			Help:      "Bills selected as affordable per computation.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
		unparseable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bills",
			Name:      "unparseable_amounts",
			Help:      "Bills whose amount is not a number, as of the last computation.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bills",
			Subsystem: "http",
			Name:      "suspicious_requests_total",
			Help:      "Requests matching a known attack pattern.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bills",
			Subsystem: "http",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.runs, m.selected, m.unparseable, m.suspicious, m.rateLimited)
	return m
}

func (m *selectorMetrics) observe(sel core.Selection) {
	m.runs.Inc()
	m.selected.Observe(float64(sel.IDs.Len()))
	m.unparseable.Set(float64(sel.Unparseable))
}
