// Package metrics provides Prometheus metrics for the care services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	PatientsCreated       prometheus.Counter
	NotesCreated          prometheus.Counter
	AlertsRaised          *prometheus.CounterVec
	AlertsResolved        prometheus.Counter
	AssessmentsRecorded   prometheus.Counter
	DeclineFlagsRaised    prometheus.Counter
	ScorerFallbacks       prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
	DashboardCacheHits    prometheus.Counter
	DashboardCacheMisses  prometheus.Counter
	KafkaMessagesProduced prometheus.Counter
	KafkaMessagesConsumed prometheus.Counter
	OutboxPending         prometheus.Gauge
	ConsumerLag           prometheus.Gauge
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		PatientsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patients_created_total",
			Help: "Total patient profiles created",
		}),
		NotesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "care_notes_created_total",
			Help: "Total care notes recorded",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safety_alerts_raised_total",
			Help: "Total safety alerts raised by category",
		}, []string{"category"}),
		AlertsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "safety_alerts_resolved_total",
			Help: "Total safety alerts resolved",
		}),
		AssessmentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adl_assessments_recorded_total",
			Help: "Total ADL assessments recorded",
		}),
		DeclineFlagsRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adl_decline_flags_total",
			Help: "Total functional decline flags raised",
		}),
		ScorerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "burnout_scorer_fallbacks_total",
			Help: "Total burnout score requests served from stored tier",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"route", "method"}),
		DashboardCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_cache_hits_total",
			Help: "Total dashboard cache hits",
		}),
		DashboardCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_cache_misses_total",
			Help: "Total dashboard cache misses",
		}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		ConsumerLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "consumer_group_lag",
			Help: "Total uncommitted records across the consumer group",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.PatientsCreated,
		m.NotesCreated,
		m.AlertsRaised,
		m.AlertsResolved,
		m.AssessmentsRecorded,
		m.DeclineFlagsRaised,
		m.ScorerFallbacks,
		m.RequestDuration,
		m.DashboardCacheHits,
		m.DashboardCacheMisses,
		m.KafkaMessagesProduced,
		m.KafkaMessagesConsumed,
		m.OutboxPending,
		m.ConsumerLag,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
