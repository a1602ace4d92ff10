// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records the API's Prometheus metrics.
type Collector struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recordhub_http_requests_total",
			Help: "HTTP requests handled, by method and status code.",
		}, []string{"method", "status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recordhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	c.registry.MustRegister(c.requestsTotal, c.requestDuration)
	return c
}

// RecordRequest records one handled request.
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.Observe(duration.Seconds())
}

// Handler returns the /metrics endpoint handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the status code written by a downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with the collector.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		c.RecordRequest(r.Method, rec.status, time.Since(start))
	})
}
