// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package catalog owns the deduplicated in-memory set of points of
// interest. The store is populated by a tiered, rate-limited ingestion
// sweep (see ingest.go), supports bounded on-demand backfill for
// externally referenced ids, and publishes change events on an in-process
// pub/sub bus.
//
// # Concurrency
//
// The store is safe for concurrent use. Writes are serialized by a single
// mutex; readers run concurrently with writers and observe either the
// pre- or post-merge state for any given id. Readiness transitions
// false -> true at most once per store instance and never reverts.
package catalog

import (
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/kanjoong/tourin/internal/config"
	"github.com/kanjoong/tourin/internal/geo"
	"github.com/kanjoong/tourin/internal/metrics"
)

// Store is the single source of truth for all known points of interest.
type Store struct {
	cfg       config.IngestConfig
	fetcher   Fetcher
	publisher message.Publisher
	logger    zerolog.Logger

	mu    sync.RWMutex
	items map[string]PointOfInterest
	ready bool
}

// NewStore creates a store backed by the given fetch port. The publisher
// may be nil, in which case no change events are emitted.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(cfg config.IngestConfig, fetcher Fetcher, publisher message.Publisher, logger zerolog.Logger) *Store {
	return &Store{
		cfg:       cfg,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger.With().Str("component", "catalog").Logger(),
		items:     make(map[string]PointOfInterest),
	}
}

// Merge inserts or overwrites each record by id. Duplicate ids collapse to
// the last record merged. No records are rejected here; malformed input is
// filtered at the fetch boundary.
func (s *Store) Merge(records []PointOfInterest) {
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	for _, rec := range records {
		s.items[rec.ID] = rec
	}
	total := len(s.items)
	s.mu.Unlock()

	metrics.IngestRecordsMerged.Add(float64(len(records)))
	metrics.CatalogSize.Set(float64(total))

	s.publish(TopicMerged, MergedEvent{
		Merged: len(records),
		Total:  total,
		At:     time.Now(),
	})
}

// IsReady reports whether ingestion has terminated. A ready store may
// still be empty or partially populated; use Count to distinguish.
func (s *Store) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Count returns the number of unique points of interest in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// All returns every point of interest, sorted by id. The sorted order
// gives downstream consumers a reproducible iteration order regardless of
// the ingestion schedule that populated the map.
func (s *Store) All() []PointOfInterest {
	s.mu.RLock()
	out := make([]PointOfInterest, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the point of interest with the given id, if present.
func (s *Store) Get(id string) (PointOfInterest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	return p, ok
}

// Nearby returns all points of interest within radiusMeters of origin by
// great-circle distance, sorted by id.
func (s *Store) Nearby(origin geo.Point, radiusMeters float64) []PointOfInterest {
	all := s.All()
	out := make([]PointOfInterest, 0)
	for _, p := range all {
		if geo.Distance(origin, p.Location()) <= radiusMeters {
			out = append(out, p)
		}
	}
	return out
}

// markReady flips the readiness flag. The flip happens at most once; later
// calls are no-ops.
func (s *Store) markReady() {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return
	}
	s.ready = true
	total := len(s.items)
	s.mu.Unlock()

	s.logger.Info().Int("total", total).Msg("catalog ready")
	s.publish(TopicReady, ReadyEvent{Total: total, At: time.Now()})
}
