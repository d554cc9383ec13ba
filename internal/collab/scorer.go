// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package collab defines the collaborative score port: a per-user,
// per-item affinity lookup backed by an external inference artifact. The
// core only relies on the contract, not on how the model is served.
package collab

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Scorer is the collaborative score port. Score returns an affinity in
// [0, 1] for a (user, item) pair; an unknown user or item scores 0 rather
// than failing. Implementations must be deterministic for a fixed
// (user, item, model-version) tuple.
type Scorer interface {
	Score(ctx context.Context, userID, itemID string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, userID, itemID string) (float64, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, userID, itemID string) (float64, error) {
	return f(ctx, userID, itemID)
}

// StaticScorer serves scores from an in-memory user -> item -> score
// table. Used for development and tests, and as the zero-signal scorer
// when no model artifact is configured.
type StaticScorer struct {
	scores map[string]map[string]float64
}

// NewStaticScorer creates a scorer over the given table. A nil table is
// valid and scores everything 0.
func NewStaticScorer(scores map[string]map[string]float64) *StaticScorer {
	return &StaticScorer{scores: scores}
}

// LoadStaticScorer reads a JSON file of user -> item -> score.
func LoadStaticScorer(path string) (*StaticScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scores file: %w", err)
	}

	var scores map[string]map[string]float64
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("decode scores file: %w", err)
	}

	return NewStaticScorer(scores), nil
}

// Score returns the stored affinity clamped to [0, 1], or 0 for unknown
// users or items.
func (s *StaticScorer) Score(_ context.Context, userID, itemID string) (float64, error) {
	items, ok := s.scores[userID]
	if !ok {
		return 0, nil
	}
	return clamp01(items[itemID]), nil
}

// BoundedScorer decorates a Scorer with a hard per-call deadline and
// absorbs every failure mode as a zero score: the fusion engine must never
// block on or fail because of the collaborative port.
type BoundedScorer struct {
	inner   Scorer
	timeout time.Duration
	logger  zerolog.Logger
}

// NewBoundedScorer wraps inner with the given per-call timeout.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBoundedScorer(inner Scorer, timeout time.Duration, logger zerolog.Logger) *BoundedScorer {
	return &BoundedScorer{
		inner:   inner,
		timeout: timeout,
		logger:  logger.With().Str("component", "collab").Logger(),
	}
}

// Score calls the wrapped scorer with a deadline. Timeouts and errors are
// logged and returned as a 0 score with a nil error. The result is always
// clamped to [0, 1] even when the wrapped scorer misbehaves.
func (b *BoundedScorer) Score(ctx context.Context, userID, itemID string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type result struct {
		score float64
		err   error
	}
	ch := make(chan result, 1)

	go func() {
		score, err := b.inner.Score(ctx, userID, itemID)
		ch <- result{score: score, err: err}
	}()

	select {
	case <-ctx.Done():
		b.logger.Debug().Str("item", itemID).Msg("collaborative score timed out")
		return 0, nil
	case res := <-ch:
		if res.err != nil {
			b.logger.Debug().Err(res.err).Str("item", itemID).Msg("collaborative score failed")
			return 0, nil
		}
		return clamp01(res.score), nil
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
