// Package metrics exposes Prometheus collectors for the tool host.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	toolInvocationsTotal       *prometheus.CounterVec
	scrapedURLsTotal           *prometheus.CounterVec
	upstreamRequestSeconds     *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		toolInvocationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_invocations_total",
				Help: "Total tool invocations, labeled by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		)

		scrapedURLsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_scraped_urls_total",
				Help: "URLs processed by the scrape tool, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		upstreamRequestSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_upstream_request_duration_seconds",
				Help:    "Latency of outbound requests, labeled by upstream service.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"service"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// ObserveToolInvocation records one tool call and its outcome.
func ObserveToolInvocation(tool, outcome string) {
	if toolInvocationsTotal == nil {
		return
	}
	toolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
}

// ObserveScrapedURL records one scraped URL by outcome ("ok" or "error").
func ObserveScrapedURL(outcome string) {
	if scrapedURLsTotal == nil {
		return
	}
	scrapedURLsTotal.WithLabelValues(outcome).Inc()
}

// ObserveUpstreamRequest records the latency of one outbound request.
func ObserveUpstreamRequest(service string, d time.Duration) {
	if upstreamRequestSeconds == nil {
		return
	}
	upstreamRequestSeconds.WithLabelValues(service).Observe(d.Seconds())
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
