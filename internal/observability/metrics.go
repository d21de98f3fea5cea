package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "helpdesk"

// Metrics owns the service collectors on a dedicated registry. All
// methods are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests           *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	errors             *prometheus.CounterVec
	updateConflicts    prometheus.Counter
	idempotencyReplays prometheus.Counter
	activities         *prometheus.CounterVec
	activityFailures   prometheus.Counter
	slaBreaches        prometheus.Counter
	sweepDuration      prometheus.Histogram
	sweepFailures      prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Error responses by code",
		}, []string{"method", "route", "code"}),
		updateConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_update_conflicts_total",
			Help:      "Ticket updates rejected because of a stale version",
		}),
		idempotencyReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotency_replays_total",
			Help:      "Responses served from the idempotency cache",
		}),
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_recorded_total",
			Help:      "Activity entries appended by action",
		}, []string{"action"}),
		activityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_record_failures_total",
			Help:      "Activity entries that could not be stored",
		}),
		slaBreaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_breaches_total",
			Help:      "Tickets transitioned to SLA breached",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sla_sweep_duration_seconds",
			Help:      "SLA sweep latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_sweep_failures_total",
			Help:      "SLA sweeps that ended with an error",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestLatency,
		m.errors,
		m.updateConflicts,
		m.idempotencyReplays,
		m.activities,
		m.activityFailures,
		m.slaBreaches,
		m.sweepDuration,
		m.sweepFailures,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

func (m *Metrics) RecordUpdateConflict() {
	if m == nil {
		return
	}
	m.updateConflicts.Inc()
}

func (m *Metrics) RecordIdempotencyReplay() {
	if m == nil {
		return
	}
	m.idempotencyReplays.Inc()
}

func (m *Metrics) RecordActivity(action string) {
	if m == nil {
		return
	}
	m.activities.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordActivityFailure() {
	if m == nil {
		return
	}
	m.activityFailures.Inc()
}

// ObserveSweep records one sweep run.
func (m *Metrics) ObserveSweep(breached int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	if breached > 0 {
		m.slaBreaches.Add(float64(breached))
	}
	if err != nil {
		m.sweepFailures.Inc()
	}
}
