// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package catalog

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/time/rate"

	"github.com/kanjoong/tourin/internal/metrics"
)

// Ingestion tier names used in logs and metrics.
const (
	tierRegional = "regional"
	tierCategory = "category"
	tierBasic    = "basic"
	tierBackfill = "backfill"
)

// StartIngestion launches the tiered ingestion sweep in the background and
// returns immediately. The sweep runs the regional tier, then the category
// tier; any page failure in either tier aborts the remaining pages and
// falls back to a basic unfiltered sweep. Readiness is set exactly once at
// the end of every path, including total upstream failure, so callers must
// tolerate a ready-but-partial (or ready-but-empty) store.
//
// Errors are logged and absorbed; nothing propagates to the caller.
func (s *Store) StartIngestion(ctx context.Context) {
	go s.runIngestion(ctx)
}

// runIngestion executes the full ingestion strategy synchronously.
func (s *Store) runIngestion(ctx context.Context) {
	defer s.markReady()

	if err := s.comprehensiveSweep(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("comprehensive sweep aborted, falling back to basic sweep")
		s.basicSweep(ctx)
	}

	s.logger.Info().Int("total", s.Count()).Msg("ingestion finished")
}

// comprehensiveSweep runs the regional and category tiers in sequence,
// merging each page as it arrives. The shared limiter paces every request
// as rate-limit courtesy toward the upstream source.
func (s *Store) comprehensiveSweep(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(s.cfg.PageInterval), 1)

	for _, region := range Regions {
		s.logger.Debug().Str("region", region.Name).Msg("regional sweep")
		for page := 1; page <= s.cfg.RegionPages; page++ {
			if err := limiter.Wait(ctx); err != nil {
				metrics.IngestTierFailures.WithLabelValues(tierRegional).Inc()
				return fmt.Errorf("regional sweep interrupted: %w", err)
			}

			recs, err := s.fetcher.FetchList(ctx, region.Code, page, ContentTypeAll, s.cfg.RegionPageSize)
			if err != nil {
				metrics.IngestTierFailures.WithLabelValues(tierRegional).Inc()
				return fmt.Errorf("regional sweep %s page %d: %w", region.Name, page, err)
			}

			metrics.IngestPagesFetched.WithLabelValues(tierRegional).Inc()
			s.Merge(recs)
		}
	}

	for _, ct := range ContentTypes {
		s.logger.Debug().Str("content_type", ct.Name).Msg("category sweep")
		for page := 1; page <= s.cfg.CategoryPages; page++ {
			if err := limiter.Wait(ctx); err != nil {
				metrics.IngestTierFailures.WithLabelValues(tierCategory).Inc()
				return fmt.Errorf("category sweep interrupted: %w", err)
			}

			recs, err := s.fetcher.FetchList(ctx, RegionAll, page, ct.Code, s.cfg.CategoryPageSize)
			if err != nil {
				metrics.IngestTierFailures.WithLabelValues(tierCategory).Inc()
				return fmt.Errorf("category sweep %s page %d: %w", ct.Name, page, err)
			}

			metrics.IngestPagesFetched.WithLabelValues(tierCategory).Inc()
			s.Merge(recs)
		}
	}

	return nil
}

// basicSweep fetches unfiltered catalog pages at a shorter interval. It is
// the last-resort tier: errors end the sweep early but are absorbed, and
// the store becomes ready with whatever was collected.
func (s *Store) basicSweep(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(s.cfg.BasicInterval), 1)

	for page := 1; page <= s.cfg.BasicPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			metrics.IngestTierFailures.WithLabelValues(tierBasic).Inc()
			s.logger.Warn().Err(err).Msg("basic sweep interrupted")
			return
		}

		recs, err := s.fetcher.FetchList(ctx, RegionAll, page, ContentTypeAll, s.cfg.BasicPageSize)
		if err != nil {
			metrics.IngestTierFailures.WithLabelValues(tierBasic).Inc()
			s.logger.Warn().Err(err).Int("page", page).Msg("basic sweep aborted")
			return
		}

		metrics.IngestPagesFetched.WithLabelValues(tierBasic).Inc()
		s.Merge(recs)
	}
}

// EnsureLoaded runs a bounded unfiltered sweep until every requested id is
// present in the store or the page cap is reached, merging each page as it
// arrives. It returns the ids still missing when the sweep stops; callers
// must treat those as not found. Fetch errors end the sweep early and are
// absorbed.
func (s *Store) EnsureLoaded(ctx context.Context, ids []string) []string {
	missing := s.missingOf(ids)
	if len(missing) == 0 {
		return nil
	}

	s.logger.Info().Int("missing", len(missing)).Msg("backfill sweep started")
	limiter := rate.NewLimiter(rate.Every(s.cfg.PageInterval), 1)

	for page := 1; page <= s.cfg.BackfillPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("backfill interrupted")
			break
		}

		recs, err := s.fetcher.FetchList(ctx, RegionAll, page, ContentTypeAll, s.cfg.BackfillPageSize)
		if err != nil {
			s.logger.Warn().Err(err).Int("page", page).Msg("backfill aborted")
			break
		}

		metrics.IngestPagesFetched.WithLabelValues(tierBackfill).Inc()
		s.Merge(recs)

		missing = s.missingOf(ids)
		if len(missing) == 0 {
			s.logger.Info().Msg("backfill found all requested ids")
			break
		}
	}

	metrics.BackfillMissing.Set(float64(len(missing)))
	if len(missing) > 0 {
		s.logger.Warn().Int("missing", len(missing)).Msg("backfill finished with ids still absent")
	}
	return missing
}

// missingOf returns the subset of ids not present in the store, sorted.
func (s *Store) missingOf(ids []string) []string {
	s.mu.RLock()
	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			missing = append(missing, id)
		}
	}
	s.mu.RUnlock()

	sort.Strings(missing)
	return missing
}
