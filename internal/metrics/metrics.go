// Package metrics exposes Prometheus collectors for the sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamConnects counts successful upstream connection attempts,
	// including reconnects.
	UpstreamConnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelhub_upstream_connects_total",
		Help: "Successful connections to the automation platform.",
	})

	// UpstreamDisconnects counts upstream connection losses.
	UpstreamDisconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelhub_upstream_disconnects_total",
		Help: "Connection losses to the automation platform.",
	})

	// EntityUpdates counts state_changed events written to the cache.
	EntityUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelhub_entity_updates_total",
		Help: "Entity state updates received from the automation platform.",
	})

	// CacheSize tracks the number of entities in the cache.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotelhub_entity_cache_size",
		Help: "Entities currently held in the entity cache.",
	})

	// StreamSubscribers tracks active SSE subscribers.
	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotelhub_stream_subscribers",
		Help: "Browser sessions currently subscribed to the event stream.",
	})

	// Broadcasts counts fan-out broadcasts to SSE subscribers.
	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelhub_stream_broadcasts_total",
		Help: "Payloads broadcast to all stream subscribers.",
	})

	// Commands counts device command requests by outcome.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelhub_commands_total",
		Help: "Device command requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
)
