// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package tourapi

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kanjoong/tourin/internal/catalog"
	"github.com/kanjoong/tourin/internal/metrics"
)

// BreakerFetcher wraps a catalog.Fetcher with a circuit breaker so a
// failing upstream stops being hammered while ingestion falls through its
// tiers. Opens after a 60% failure rate across at least 10 requests,
// allows 3 probe requests while half-open, and waits 2 minutes before
// probing an open circuit.
//
// The breaker uses real time for its interval and timeout bookkeeping.
// Unit tests should exercise the wrapped fetcher directly, or drive the
// breaker past its trip threshold rather than waiting on timers.
type BreakerFetcher struct {
	inner catalog.Fetcher
	cb    *gobreaker.CircuitBreaker[[]catalog.PointOfInterest]
	name  string
}

var _ catalog.Fetcher = (*BreakerFetcher)(nil)

// NewBreakerFetcher wraps inner with circuit breaker protection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerFetcher(inner catalog.Fetcher, logger zerolog.Logger) *BreakerFetcher {
	const name = "tourapi"
	log := logger.With().Str("component", "tourapi-breaker").Logger()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]catalog.PointOfInterest](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				log.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_ratio", failureRatio).
					Msg("opening circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			log.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerFetcher{inner: inner, cb: cb, name: name}
}

// FetchList delegates to the wrapped fetcher through the breaker. When the
// circuit is open the upstream is not contacted at all.
func (b *BreakerFetcher) FetchList(ctx context.Context, region catalog.RegionCode, page int, contentType catalog.ContentTypeCode, rows int) ([]catalog.PointOfInterest, error) {
	recs, err := b.cb.Execute(func() ([]catalog.PointOfInterest, error) {
		return b.inner.FetchList(ctx, region, page, contentType, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.name, err)
	}
	return recs, nil
}

// State returns the current breaker state, for health reporting.
func (b *BreakerFetcher) State() gobreaker.State {
	return b.cb.State()
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
