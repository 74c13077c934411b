package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "careercraft"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	consultations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultation_submissions_total",
			Help:      "Consultation submissions by outcome.",
		},
		[]string{"outcome"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification sends by channel and result.",
		},
		[]string{"channel", "result"},
	)

	artifacts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_operations_total",
			Help:      "Artifact store operations by backend, operation and result.",
		},
		[]string{"backend", "op", "result"},
	)

	throttled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_submissions_total",
			Help:      "Public submissions rejected by the throttle.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, consultations, notifications, artifacts, throttled)
	})
}

// ObserveHTTP records one finished request.
func ObserveHTTP(route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// IncConsultation counts a submission outcome (created, conflict, invalid, failed).
func IncConsultation(outcome string) {
	consultations.WithLabelValues(outcome).Inc()
}

func IncNotification(channel string, err error) {
	notifications.WithLabelValues(channel, result(err)).Inc()
}

func IncArtifact(backend, op string, err error) {
	artifacts.WithLabelValues(backend, op, result(err)).Inc()
}

func IncThrottled() {
	throttled.Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
