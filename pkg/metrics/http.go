package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request latency and outcome per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewHTTPMetrics registers the request metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration, requests)
	return &HTTPMetrics{
		duration: duration,
		requests: requests,
	}
}

// Observe records one completed request.
func (h *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	route = normalizeLabel(route)
	h.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
