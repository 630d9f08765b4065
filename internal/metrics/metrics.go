package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector of the service. A nil *Metrics is a no-op so
// services and tests can run without a registry.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	meetupOps       *prometheus.CounterVec
	subscriptions   *prometheus.CounterVec
	enqueueFailures prometheus.Counter
	mailJobs        *prometheus.CounterVec
}

func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "The total number of handled HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		meetupOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetup_operations_total",
				Help: "Meetup create/update/delete attempts by outcome",
			},
			[]string{"operation", "outcome"},
		),
		subscriptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetup_subscriptions_total",
				Help: "Subscription attempts by outcome",
			},
			[]string{"outcome"},
		),
		enqueueFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "notification_enqueue_failures_total",
				Help: "Notification jobs that could not be handed to the queue",
			},
		),
		mailJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mail_jobs_total",
				Help: "Mail jobs processed by the worker by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncMeetupOperation counts one create, update or delete by its outcome.
func (m *Metrics) IncMeetupOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.meetupOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncSubscription(outcome string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncEnqueueFailure() {
	if m == nil {
		return
	}
	m.enqueueFailures.Inc()
}

func (m *Metrics) IncMailJob(outcome string) {
	if m == nil {
		return
	}
	m.mailJobs.WithLabelValues(outcome).Inc()
}
