package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briefing_backend_requests_total",
		Help: "Requests made to the news backend by operation and outcome",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "briefing_backend_request_duration_seconds",
		Help:    "Latency of requests to the news backend",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms up to ~40s, pipeline runs are slow
	}, []string{"operation"})
)

func observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
