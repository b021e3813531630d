// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipes_http_requests_total",
			Help: "Total number of HTTP requests by logical route",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipes_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipes_upstream_requests_total",
			Help: "Total number of outbound API calls by target and outcome",
		},
		[]string{"target", "outcome"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipes_upstream_request_duration_seconds",
			Help:    "Outbound API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	pagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipes_pages_created_total",
			Help: "Total number of pages created by kind",
		},
		[]string{"kind"},
	)

	sessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_sessions_created_total",
			Help: "Total number of search sessions created",
		},
	)

	tokenCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipes_token_cache_lookups_total",
			Help: "Token cache lookups by result",
		},
		[]string{"result"},
	)

	rateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
	)

	panicRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_panic_recoveries_total",
			Help: "Total number of panics recovered in HTTP handlers",
		},
	)
)

// Upstream targets
const (
	TargetMealDB      = "mealdb"
	TargetNotionPages = "notion_pages"
	TargetNotionOAuth = "notion_oauth"
	TargetCoverMirror = "cover_mirror"
)

// ObserveRequest records one served HTTP request
func ObserveRequest(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveUpstream records one outbound call. A nil err counts as success.
func ObserveUpstream(target string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	upstreamRequestsTotal.WithLabelValues(target, outcome).Inc()
	upstreamRequestDuration.WithLabelValues(target).Observe(time.Since(start).Seconds())
}

// PageCreated counts a created page of kind "keyword" or "recipe"
func PageCreated(kind string) {
	pagesCreated.WithLabelValues(kind).Inc()
}

func SessionCreated() {
	sessionsCreated.Inc()
}

// TokenCacheLookup counts a cache lookup as a hit or a miss
func TokenCacheLookup(hit bool) {
	if hit {
		tokenCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	tokenCacheLookups.WithLabelValues("miss").Inc()
}

func RateLimitRejected() {
	rateLimitRejects.Inc()
}

func PanicRecovered() {
	panicRecoveries.Inc()
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
