package anbima

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector receives client-side events. Supply an implementation
// with WithMetrics; the default discards everything.
//
// RecordRequest receives statusCode 0 when the request failed before a
// response arrived.
type MetricsCollector interface {
	RecordRequest(endpoint string, statusCode int, latency time.Duration)
	RecordRetry(reason string)
	RecordAuthentication(success bool)
	RecordPageFetched(resource string)
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(string, int, time.Duration) {}
func (noopMetrics) RecordRetry(string)                       {}
func (noopMetrics) RecordAuthentication(bool)                {}
func (noopMetrics) RecordPageFetched(string)                 {}

// PrometheusCollector is a MetricsCollector backed by Prometheus metrics.
type PrometheusCollector struct {
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	authentications *prometheus.CounterVec
	pages           *prometheus.CounterVec
}

// NewPrometheusCollector creates the collector and registers its metrics on reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anbima_requests_total",
			Help: "Requests sent to the ANBIMA API by endpoint and status code.",
		}, []string{"endpoint", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anbima_request_latency_seconds",
			Help:    "Latency of ANBIMA API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anbima_retries_total",
			Help: "Retries scheduled by reason.",
		}, []string{"reason"}),
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anbima_authentications_total",
			Help: "Client-credentials handshakes by outcome.",
		}, []string{"outcome"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anbima_pages_fetched_total",
			Help: "Listing pages fetched by resource.",
		}, []string{"resource"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.retries,
		c.authentications,
		c.pages,
	)

	return c
}

// RecordRequest counts an HTTP exchange. Transport failures are labelled
// status_code="error".
func (c *PrometheusCollector) RecordRequest(endpoint string, statusCode int, latency time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	c.requests.WithLabelValues(endpoint, status).Inc()
	c.requestLatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}

// RecordRetry counts a scheduled retry.
func (c *PrometheusCollector) RecordRetry(reason string) {
	c.retries.WithLabelValues(reason).Inc()
}

// RecordAuthentication counts a handshake outcome.
func (c *PrometheusCollector) RecordAuthentication(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.authentications.WithLabelValues(outcome).Inc()
}

// RecordPageFetched counts a fetched listing page.
func (c *PrometheusCollector) RecordPageFetched(resource string) {
	c.pages.WithLabelValues(resource).Inc()
}
