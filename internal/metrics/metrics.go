// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

// Package metrics defines the Prometheus instrumentation for the
// generator pipeline, the sinks and the catalog.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsEmitted counts events handed to the sink, by kind.
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loggen_events_emitted_total",
			Help: "Total number of generated events by event kind",
		},
		[]string{"kind"},
	)

	// IterationsSkipped counts pipeline iterations that produced no
	// events, by reason (no_user, detail_unavailable, generation_error,
	// sink_error).
	IterationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loggen_iterations_skipped_total",
			Help: "Total number of skipped generation iterations by reason",
		},
		[]string{"reason"},
	)

	// UsersCreated counts new users injected during generation.
	UsersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loggen_users_created_total",
			Help: "Total number of new users created mid-generation",
		},
	)

	// UsersDeleted counts users evicted via register-out.
	UsersDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loggen_users_deleted_total",
			Help: "Total number of users soft-deleted mid-generation",
		},
	)

	// SinkFlushes counts bucket flushes, by sink type and outcome.
	SinkFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loggen_sink_flushes_total",
			Help: "Total number of sink bucket flushes by sink and status",
		},
		[]string{"sink", "status"},
	)

	// SinkBytesWritten counts payload bytes written, by sink type.
	SinkBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loggen_sink_bytes_written_total",
			Help: "Total number of payload bytes written by sink",
		},
		[]string{"sink"},
	)

	// EventsDroppedLate counts events rejected for arriving before the
	// sink's current bucket window.
	EventsDroppedLate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loggen_events_dropped_late_total",
			Help: "Total number of events dropped for being older than the open bucket window",
		},
	)

	// CatalogQueryDuration observes catalog query latency by operation.
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loggen_catalog_query_duration_seconds",
			Help:    "Catalog query duration in seconds by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// PublishDuration observes end-to-end publish latency for streaming
	// sinks (NATS, Kinesis).
	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loggen_publish_duration_seconds",
			Help:    "Streaming sink publish duration in seconds by sink",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	// CircuitBreakerState tracks the publisher circuit breaker state
	// (0 = closed, 1 = half-open, 2 = open).
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loggen_publisher_circuit_breaker_state",
			Help: "Publisher circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// PoolActiveUsers tracks the size of today's selectable user pool.
	PoolActiveUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loggen_pool_active_users",
			Help: "Number of users in the current daily pool",
		},
	)
)

// ObserveCatalogQuery records the elapsed time of a catalog operation.
func ObserveCatalogQuery(operation string, start time.Time) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObservePublish records the elapsed time of a streaming publish.
func ObservePublish(sink string, start time.Time) {
	PublishDuration.WithLabelValues(sink).Observe(time.Since(start).Seconds())
}
