// Package telemetry exposes the prometheus metrics of the scanner service.
//
// All recording methods are safe on a nil *Metrics so components can run without metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wildscan"

// Scan outcomes.
const (
	OutcomeFlights = "flights"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

// Cache lookup results.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Metrics owns a private registry so independent instances do not collide in tests.
type Metrics struct {
	registry *prometheus.Registry

	scans            *prometheus.CounterVec
	scanDuration     prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
	slotsInUse       prometheus.Gauge
	loginTransitions *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Route scans performed by the browser engine, by outcome.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of one route scan including slot wait.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups, by result.",
		}, []string{"result"}),
		slotsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browser_slots_in_use",
			Help:      "Browser slots currently held by scans.",
		}),
		loginTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_transitions_total",
			Help:      "Login flow state transitions, by target state.",
		}, []string{"to"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_batches_total",
			Help:      "Scan batches rejected by the minimum interval.",
		}),
	}
	reg.MustRegister(
		m.scans,
		m.scanDuration,
		m.cacheLookups,
		m.slotsInUse,
		m.loginTransitions,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveScan(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(took.Seconds())
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) SetSlotsInUse(n int) {
	if m == nil {
		return
	}
	m.slotsInUse.Set(float64(n))
}

func (m *Metrics) LoginTransition(to string) {
	if m == nil {
		return
	}
	m.loginTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
