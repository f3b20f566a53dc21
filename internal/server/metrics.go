package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the collectors exported on /metrics. Each Server registers
// them on its own registry.
type metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	toggles        *prometheus.CounterVec
	rateLimited    prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streaks_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "streaks_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method", "route"}),
		toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streaks_toggles_total",
			Help: "Habit toggles by outcome",
		}, []string{"outcome"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "streaks_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

const (
	outcomeCompleted = "completed"
	outcomeUndone    = "undone"
	outcomeNotFound  = "not_found"
	outcomeError     = "error"
)
