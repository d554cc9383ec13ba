// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package metrics exposes Prometheus collectors for catalog ingestion,
// upstream fetch health, and recommendation serving.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	IngestPagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourin_ingest_pages_total",
			Help: "Total number of catalog pages fetched, by ingestion tier",
		},
		[]string{"tier"}, // "regional", "category", "basic", "backfill"
	)

	IngestRecordsMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tourin_ingest_records_merged_total",
			Help: "Total number of point-of-interest records merged into the store",
		},
	)

	IngestTierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourin_ingest_tier_failures_total",
			Help: "Total number of ingestion tier aborts, by tier",
		},
		[]string{"tier"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tourin_catalog_size",
			Help: "Current number of unique points of interest in the store",
		},
	)

	BackfillMissing = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tourin_backfill_missing_ids",
			Help: "Number of requested ids still absent after the last backfill sweep",
		},
	)

	// Upstream Fetch Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourin_upstream_requests_total",
			Help: "Total number of upstream catalog requests, by outcome",
		},
		[]string{"outcome"}, // "success", "network_error", "auth_error", "decode_error"
	)

	UpstreamRecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tourin_upstream_records_dropped_total",
			Help: "Total number of upstream records dropped for malformed coordinates",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tourin_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourin_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tourin_recommend_requests_total",
			Help: "Total number of recommendation queries served",
		},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tourin_recommend_duration_seconds",
			Help:    "Duration of recommendation queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tourin_feature_index_rebuilds_total",
			Help: "Total number of content feature index rebuilds",
		},
	)
)
