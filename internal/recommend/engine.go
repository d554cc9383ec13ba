// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package recommend fuses three independent signals into one ranked
// recommendation list: a collaborative affinity score from the external
// model port, a content similarity score from the feature index, and a
// gaussian proximity score from the caller's location.
//
// The collaborative weight dominates when the model knows the user;
// cold-start users score 0 on every item there, so ranking falls to the
// content and proximity terms. The proximity term is a light nudge, not a
// primary signal.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/kanjoong/tourin/internal/catalog"
	"github.com/kanjoong/tourin/internal/collab"
	"github.com/kanjoong/tourin/internal/config"
	"github.com/kanjoong/tourin/internal/feature"
	"github.com/kanjoong/tourin/internal/geo"
	"github.com/kanjoong/tourin/internal/metrics"
)

// Catalog is the read surface the engine needs from the store. All must
// return a reproducible iteration order; ranking ties are broken by it.
type Catalog interface {
	All() []catalog.PointOfInterest
}

// Engine produces top-K ranked recommendations. Safe for concurrent use.
type Engine struct {
	cfg     config.RecommendConfig
	catalog Catalog
	scorer  collab.Scorer
	logger  zerolog.Logger

	mu    sync.Mutex
	index *feature.Index
	stale atomic.Bool
}

// NewEngine creates a fusion engine over the given catalog and
// collaborative score port.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg config.RecommendConfig, cat Catalog, scorer collab.Scorer, logger zerolog.Logger) (*Engine, error) {
	if cfg.CFWeight < 0 || cfg.CBWeight < 0 || cfg.GeoWeight < 0 {
		return nil, fmt.Errorf("recommend: negative fusion weight in %+v", cfg)
	}
	if cfg.CFWeight+cfg.CBWeight+cfg.GeoWeight <= 0 {
		return nil, fmt.Errorf("recommend: fusion weights sum to zero")
	}
	if cfg.GeoSigmaMeters <= 0 {
		return nil, fmt.Errorf("recommend: geo sigma must be positive, got %f", cfg.GeoSigmaMeters)
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("recommend: default top-k must be positive, got %d", cfg.TopK)
	}

	return &Engine{
		cfg:     cfg,
		catalog: cat,
		scorer:  scorer,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// MarkStale flags the feature index for a lazy rebuild before the next
// query.
func (e *Engine) MarkStale() {
	e.stale.Store(true)
}

// Subscribe marks the index stale whenever the store publishes a merge
// event. The subscription lives until ctx is canceled.
func (e *Engine) Subscribe(ctx context.Context, sub message.Subscriber) error {
	msgs, err := sub.Subscribe(ctx, catalog.TopicMerged)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", catalog.TopicMerged, err)
	}

	go func() {
		for msg := range msgs {
			e.MarkStale()
			msg.Ack()
		}
	}()

	return nil
}

// Recommend returns the top-K ranked points of interest for a user,
// excluding the given ids. A nil location zeroes the content and
// proximity terms. An empty candidate set yields an empty list, not an
// error. For fixed inputs the output order is reproducible: candidates
// are scored in catalog order and ties keep that order.
func (e *Engine) Recommend(ctx context.Context, userID string, loc *geo.Point, excluding map[string]struct{}, topK int) ([]Recommendation, error) {
	start := time.Now()
	metrics.RecommendRequests.Inc()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	if topK <= 0 {
		topK = e.cfg.TopK
	}

	items := e.catalog.All()
	if len(items) == 0 {
		return []Recommendation{}, nil
	}

	candidates := make([]catalog.PointOfInterest, 0, len(items))
	for _, item := range items {
		if _, excluded := excluding[item.ID]; !excluded {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return []Recommendation{}, nil
	}

	ix := e.currentIndex(items)

	var query []float64
	if loc != nil {
		query = ix.QueryVector(*loc)
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, cand := range candidates {
		cf, err := e.scorer.Score(ctx, userID, cand.ID)
		if err != nil {
			e.logger.Debug().Err(err).Str("item", cand.ID).Msg("collaborative score unavailable")
			cf = 0
		}

		var cb, geoScore float64
		if loc != nil {
			cb = ix.Similarity(cand.ID, query)
			geoScore = e.proximity(cand.Location(), *loc)
		}

		recs = append(recs, Recommendation{
			ID:    cand.ID,
			Score: e.cfg.CFWeight*cf + e.cfg.CBWeight*cb + e.cfg.GeoWeight*geoScore,
			CF:    cf,
			CB:    cb,
			Geo:   geoScore,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })

	if len(recs) > topK {
		recs = recs[:topK]
	}

	e.logger.Debug().
		Str("user", userID).
		Int("candidates", len(candidates)).
		Int("returned", len(recs)).
		Msg("recommendation query served")

	return recs, nil
}

// proximity maps a distance to (0, 1] with a gaussian falloff: 1 at zero
// distance, strictly decreasing with distance, sigma controls the spread.
func (e *Engine) proximity(a, b geo.Point) float64 {
	ratio := geo.Distance(a, b) / e.cfg.GeoSigmaMeters
	return math.Exp(-ratio * ratio)
}

// currentIndex returns the feature index, rebuilding it when it is
// missing, flagged stale, or visibly out of sync with the catalog size.
// The vocabulary of a rebuilt index may differ, so the old instance is
// replaced wholesale, never patched.
func (e *Engine) currentIndex(items []catalog.PointOfInterest) *feature.Index {
	e.mu.Lock()
	defer e.mu.Unlock()

	stale := e.stale.Swap(false)
	if e.index == nil || stale || e.index.Size() != len(items) {
		e.index = feature.New(items)
		e.logger.Debug().Int("size", e.index.Size()).Msg("feature index rebuilt")
	}
	return e.index
}
