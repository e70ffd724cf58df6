package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records store query latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentorbridge_database_query_latency_seconds",
		Help:    "Store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthAttempts counts register/login outcomes per surface.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorbridge_auth_attempts_total",
		Help: "Register and login attempts by action and outcome",
	}, []string{"action", "outcome"})

	// MatchRequests counts match requests by outcome code.
	MatchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorbridge_match_requests_total",
		Help: "Match requests by outcome",
	}, []string{"outcome"})

	// MatchTransitions counts accepted and declined decisions.
	MatchTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorbridge_match_transitions_total",
		Help: "Match status transitions by target status and outcome",
	}, []string{"status", "outcome"})

	// RecommendationsServed records how many candidates a recommendation call returned.
	RecommendationsServed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mentorbridge_recommendations_served",
		Help:    "Number of candidates returned per recommendation",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
	})

	// NotificationsPublished counts match events pushed to pub/sub.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorbridge_notifications_published_total",
		Help: "Match notifications published by event type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts feed messages dropped for slow or closed clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorbridge_websocket_backpressure_drops_total",
		Help: "Notification feed messages dropped by reason",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Outcome labels an error for the counters above: "ok" or the error code.
func Outcome(err error, code func(error) string) string {
	if err == nil {
		return "ok"
	}
	return code(err)
}
