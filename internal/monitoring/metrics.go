package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"event-ticketing-manager/internal/services"
)

const namespace = "ticketing"

// Metrics records lifecycle outcomes on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	reservations     *prometheus.CounterVec
	reservedPlaces   prometheus.Counter
	transitions      *prometheus.CounterVec
	sweepRuns        prometheus.Counter
	sweepChanges     *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
	lockWaitDuration prometheus.Histogram
}

// NewMetrics registers the lifecycle collectors plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		reservations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservations_total",
				Help:      "Reservation attempts by outcome",
			},
			[]string{"outcome"},
		),
		reservedPlaces: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reserved_places_total",
				Help:      "Places held by successful reservations",
			},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Status transitions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		sweepRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_runs_total",
				Help:      "Completed reconciliation sweeps",
			},
		),
		sweepChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_changes_total",
				Help:      "Records changed by the reconciliation sweep",
			},
			[]string{"kind"},
		),
		sweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of reconciliation sweeps",
				Buckets:   prometheus.DefBuckets,
			},
		),
		lockWaitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "event_lock_wait_seconds",
				Help:      "Time spent waiting for the per-event reservation lock",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
	}
}

var _ services.MetricsRecorder = (*Metrics)(nil)

func (m *Metrics) ObserveReservation(outcome string, quantity int) {
	m.reservations.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.reservedPlaces.Add(float64(quantity))
	}
}

func (m *Metrics) ObserveTransition(operation, outcome string) {
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveSweep(result services.SweepResult, duration time.Duration) {
	m.sweepRuns.Inc()
	m.sweepChanges.WithLabelValues("reservation_expired").Add(float64(result.ReservationsExpired))
	m.sweepChanges.WithLabelValues("event_cancelled_out").Add(float64(result.EventsCancelledOut))
	m.sweepChanges.WithLabelValues("event_finalized").Add(float64(result.EventsFinalized))
	m.sweepChanges.WithLabelValues("failed").Add(float64(result.Failed))
	m.sweepDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveLockWait(duration time.Duration) {
	m.lockWaitDuration.Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
