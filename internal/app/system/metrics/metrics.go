// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campusevents"

var (
	// HTTPRequests counts requests by method, route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RecommendCalls counts recommendation service calls by op and outcome.
	RecommendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommend_calls_total",
		Help:      "Recommendation service calls by operation and outcome.",
	}, []string{"op", "outcome"})

	// FeedCache counts public feed cache lookups by result (hit, miss, error).
	FeedCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_cache_lookups_total",
		Help:      "Public event feed cache lookups by result.",
	}, []string{"result"})

	// EventTransitions counts lifecycle transitions (published, completed).
	EventTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_transitions_total",
		Help:      "Event lifecycle transitions by target status and source (api, worker).",
	}, []string{"to", "source"})

	// InboxResponses counts inbox decisions by kind and decision.
	InboxResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbox_responses_total",
		Help:      "Inbox decisions by kind and decision.",
	}, []string{"kind", "decision"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
