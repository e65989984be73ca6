// Package metrics exposes turntable activity as Prometheus metrics.
//
// Every Metrics value owns its registry, so several apps (or tests) in one
// process never collide on metric names.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/turntablepool/internal/diag"
	"github.com/specialistvlad/turntablepool/internal/turntable"
)

const namespace = "turntablepool"

// Metrics holds the collectors of one run.
type Metrics struct {
	registry *prometheus.Registry

	transitions    *prometheus.CounterVec
	queueLength    *prometheus.GaugeVec
	occupied       *prometheus.GaugeVec
	diagnostics    *prometheus.CounterVec
	scenarioEvents *prometheus.CounterVec
	poolsLoaded    prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Turntable state and queue changes by turntable and event.",
		}, []string{"turntable", "event"}),
		queueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Trains waiting for a turntable, across all of its tracks.",
		}, []string{"turntable"}),
		occupied: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "occupied",
			Help:      "1 while a train is on the turntable deck.",
		}, []string{"turntable"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Pool definition diagnostics by severity.",
		}, []string{"severity"}),
		scenarioEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_events_total",
			Help:      "Scenario events by outcome.",
		}, []string{"outcome"}),
		poolsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pools_loaded",
			Help:      "Turntable pools in the registry.",
		}),
	}
	m.registry.MustRegister(m.transitions, m.queueLength, m.occupied, m.diagnostics, m.scenarioEvents, m.poolsLoaded)
	return m
}

// Observer returns a turntable observer feeding the transition metrics.
func (m *Metrics) Observer() turntable.Observer {
	return func(tr turntable.Transition) {
		m.transitions.WithLabelValues(tr.Turntable, tr.Event.String()).Inc()

		waiting := 0
		for _, q := range tr.Snapshot.Queues {
			waiting += len(q)
		}
		m.queueLength.WithLabelValues(tr.Turntable).Set(float64(waiting))

		occupied := 0.0
		if tr.To.Kind == turntable.Occupied {
			occupied = 1
		}
		m.occupied.WithLabelValues(tr.Turntable).Set(occupied)
	}
}

// Report implements diag.Sink by counting diagnostics.
func (m *Metrics) Report(d diag.Diagnostic) {
	m.diagnostics.WithLabelValues(d.Severity.String()).Inc()
}

// SetPools records the number of loaded pools.
func (m *Metrics) SetPools(n int) {
	m.poolsLoaded.Set(float64(n))
}

// ObserveOutcome counts one scenario event.
func (m *Metrics) ObserveOutcome(o turntable.Outcome) {
	m.scenarioEvents.WithLabelValues(o.String()).Inc()
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
