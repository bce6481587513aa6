// Package metrics exposes Prometheus collectors for placement, sweep and
// pass outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "synthgen"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors of one registry. It implements the
// placement and sweep observer interfaces.
type Metrics struct {
	registry *prometheus.Registry

	placements   *prometheus.CounterVec
	sweepHidden  prometheus.Counter
	sweepLeaks   prometheus.Counter
	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	randomDraws  prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		placements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_total",
			Help:      "Placement attempts by strategy and outcome (success or failure reason)",
		}, []string{"strategy", "outcome"}),
		sweepHidden: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_hidden_total",
			Help:      "Entities moved to the excluded state by world sweeps",
		}),
		sweepLeaks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_leaked_total",
			Help:      "Managed entities still visible after a sweep",
		}),
		passes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Completed generation passes by status",
		}, []string{"status"}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of one generation pass",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		randomDraws: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "random_draws_total",
			Help:      "Random source draws consumed by passes",
		}),
	}
}

// ObservePlacement counts one placement attempt.
func (m *Metrics) ObservePlacement(strategy string, success bool, reason string) {
	outcome := OutcomeSuccess
	if !success {
		outcome = reason
		if outcome == "" {
			outcome = OutcomeFailure
		}
	}
	m.placements.WithLabelValues(strategy, outcome).Inc()
}

// ObserveSweep records a sweep result.
func (m *Metrics) ObserveSweep(hidden, leaked int) {
	m.sweepHidden.Add(float64(hidden))
	m.sweepLeaks.Add(float64(leaked))
}

// ObservePass records a finished pass.
func (m *Metrics) ObservePass(d time.Duration, draws int64, err error) {
	status := OutcomeSuccess
	if err != nil {
		status = OutcomeFailure
	}
	m.passes.WithLabelValues(status).Inc()
	m.passDuration.Observe(d.Seconds())
	m.randomDraws.Add(float64(draws))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
