// Package metrics registers the prometheus collectors shared by the colony
// processes. Both binaries expose them on GET /metrics of their HTTP port.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TickLatency observes the wall time of one shard tick, including the
	// border export that follows it.
	TickLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "colony",
		Name:      "shard_tick_latency_seconds",
		Help:      "Latency of a single shard tick.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	// BorderExchangesSent counts border updates sent to neighbor workers.
	BorderExchangesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "colony",
		Name:      "border_exchanges_sent_total",
		Help:      "Border updates sent to adjacent shards.",
	})

	// BorderMerges counts border updates merged into a local shard.
	BorderMerges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "colony",
		Name:      "border_merges_total",
		Help:      "Border updates merged into local shard halos.",
	})

	// BorderStaleDropped counts border updates discarded as stale.
	BorderStaleDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "colony",
		Name:      "border_stale_dropped_total",
		Help:      "Border updates discarded because the receiver had already advanced.",
	})

	// RPCClientErrors counts failed outbound RPC calls by peer address.
	RPCClientErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colony",
		Name:      "rpc_client_errors_total",
		Help:      "Outbound RPC failures (timeouts and connection errors).",
	}, []string{"peer"})

	// EventBroadcastFailures counts workers missed during an event broadcast.
	EventBroadcastFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "colony",
		Name:      "event_broadcast_failures_total",
		Help:      "Workers unreachable during best-effort event broadcast.",
	})

	// HTTPLatency observes the latency of the HTTP control/query surface.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "colony",
		Name:      "http_request_latency_seconds",
		Help:      "Latency of HTTP control and query requests.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"endpoint"})
)
