// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostMutations counts successful post aggregate mutations by operation.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_post_mutations_total",
		Help: "Total number of successful post mutations by operation",
	}, []string{"operation"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_cache_lookups_total",
		Help: "Cache-aside lookups by key family and result (hit, miss)",
	}, []string{"family", "result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialnet_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// EventsPublished counts realtime events handed to a transport.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnet_events_published_total",
		Help: "Realtime events published by transport and event type",
	}, []string{"transport", "event_type"})
)

// RecordPostMutation increments the mutation counter for operation.
func RecordPostMutation(operation string) {
	PostMutations.WithLabelValues(operation).Inc()
}
