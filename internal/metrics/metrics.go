// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmorate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmorate_http_rate_limited_total",
			Help: "Total number of requests rejected by the per-IP rate limiter",
		},
	)

	// Domain
	FriendshipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_friendship_changes_total",
			Help: "Friendship mutations by action (add, remove)",
		},
		[]string{"action"},
	)

	LikeChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_like_changes_total",
			Help: "Like mutations by action (put, remove)",
		},
		[]string{"action"},
	)

	// Popular-film cache
	PopularCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmorate_popular_cache_hits_total",
			Help: "Total number of popular-film cache hits",
		},
	)

	PopularCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmorate_popular_cache_misses_total",
			Help: "Total number of popular-film cache misses",
		},
	)

	PopularCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_popular_cache_errors_total",
			Help: "Popular-film cache failures by operation (get, set, invalidate)",
		},
		[]string{"operation"},
	)
)

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordFriendship counts a friendship add or remove.
func RecordFriendship(action string) {
	FriendshipChanges.WithLabelValues(action).Inc()
}

// RecordLike counts a like put or remove.
func RecordLike(action string) {
	LikeChanges.WithLabelValues(action).Inc()
}

// RecordCacheLookup counts a popular-film cache lookup.
func RecordCacheLookup(hit bool) {
	if hit {
		PopularCacheHits.Inc()
	} else {
		PopularCacheMisses.Inc()
	}
}

// RecordCacheError counts a popular-film cache failure.
func RecordCacheError(operation string) {
	PopularCacheErrors.WithLabelValues(operation).Inc()
}
