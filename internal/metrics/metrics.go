// Package metrics holds the Prometheus collectors of the dashboard.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MetricFetchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendas",
			Name:      "source_fetch_total",
			Help:      "Record source fetches by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	MetricFetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vendas",
			Name:      "source_fetch_duration_seconds",
			Help:      "Record source fetch latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	MetricCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendas",
			Name:      "cache_lookups_total",
			Help:      "Record cache lookups by result",
		},
		[]string{"result"},
	)

	MetricRefreshCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendas",
			Name:      "snapshot_refresh_total",
			Help:      "Snapshot refreshes by outcome",
		},
		[]string{"outcome"},
	)

	MetricSnapshotRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vendas",
			Name:      "snapshot_records",
			Help:      "Records in the last stored snapshot",
		},
	)

	MetricHTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendas",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		},
		[]string{"method", "code"},
	)

	MetricRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vendas",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)

	MetricSuspiciousRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vendas",
			Name:      "suspicious_requests_total",
			Help:      "Requests flagged by the security detector",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MetricFetchCount,
		MetricFetchLatency,
		MetricCacheLookups,
		MetricRefreshCount,
		MetricSnapshotRecords,
		MetricHTTPRequests,
		MetricRateLimited,
		MetricSuspiciousRequests,
	)
}

// Outcome labels an error as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveHTTP counts one served request.
func ObserveHTTP(method string, status int) {
	MetricHTTPRequests.With(prometheus.Labels{"method": method, "code": strconv.Itoa(status)}).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
