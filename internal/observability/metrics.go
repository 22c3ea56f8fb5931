// Package observability holds the Prometheus metrics for the service.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	indexOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_ops_total",
			Help: "Cell index operations by scheme and outcome.",
		},
		[]string{"op", "scheme", "outcome"},
	)

	coveringCells = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covering_cells",
			Help:    "Number of cells produced per covering.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 13), // 1 to 4096
		},
		[]string{"scheme"},
	)

	coveringDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covering_degraded_total",
			Help: "Coverings that had to coarsen below the requested precision.",
		},
		[]string{"scheme"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by outcome.",
		},
		[]string{"outcome"},
	)

	cacheOpSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_seconds",
			Help:    "Latency of cache backend operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op", "outcome"},
	)

	invalLagSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "invalidation_lag_seconds",
			Help: "Approximate invalidation lag: now - message timestamp.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveIndexOp(op, scheme string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	indexOpsTotal.WithLabelValues(op, scheme, outcome).Inc()
}

func ObserveCovering(scheme string, cells int, degraded bool) {
	coveringCells.WithLabelValues(scheme).Observe(float64(cells))
	if degraded {
		coveringDegradedTotal.WithLabelValues(scheme).Inc()
	}
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cacheOpSeconds.WithLabelValues(op, outcome).Observe(durationSeconds)
}

func IncCacheHit()  { cacheResults.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheResults.WithLabelValues("miss").Inc() }

func AddCacheHits(n int) {
	if n > 0 {
		cacheResults.WithLabelValues("hit").Add(float64(n))
	}
}

func AddCacheMisses(n int) {
	if n > 0 {
		cacheResults.WithLabelValues("miss").Add(float64(n))
	}
}

func SetInvalidationLagSeconds(lag float64) {
	invalLagSeconds.Set(lag)
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
