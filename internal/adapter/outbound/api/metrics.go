package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the console client.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	UnauthorizedTotal     prometheus.Counter
	ProbeRetriesTotal     prometheus.Counter
	BootstrapOutcomes     *prometheus.CounterVec
	NavigationsTotal      *prometheus.CounterVec
	NavigationsSuppressed prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "kyradi_console",
				Name:      "requests_total",
				Help:      "Total number of backend API requests",
			},
			[]string{"method", "status"}, // status=2xx/4xx/5xx/network
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "kyradi_console",
				Name:      "request_duration_seconds",
				Help:      "Backend API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		UnauthorizedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "kyradi_console",
				Name:      "unauthorized_total",
				Help:      "Total 401 responses that triggered global handling",
			},
		),
		ProbeRetriesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "kyradi_console",
				Name:      "probe_retries_total",
				Help:      "Identity probe retries during the login race window",
			},
		),
		BootstrapOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "kyradi_console",
				Name:      "bootstrap_outcomes_total",
				Help:      "Bootstrap results by outcome",
			},
			[]string{"outcome"}, // outcome=authenticated/unauthenticated/logout_grace
		),
		NavigationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "kyradi_console",
				Name:      "navigations_total",
				Help:      "Navigations performed by the guard",
			},
			[]string{"kind"}, // kind=route/redirect
		),
		NavigationsSuppressed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "kyradi_console",
				Name:      "navigations_suppressed_total",
				Help:      "Navigations suppressed by dedup or self-target checks",
			},
		),
	}
}
