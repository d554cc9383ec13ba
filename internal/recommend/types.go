// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package recommend

// Recommendation is one ranked result. Ephemeral: computed per query and
// never persisted.
type Recommendation struct {
	// ID references the underlying point of interest.
	ID string `json:"id"`

	// Score is the fused ranking signal. Each term is in [0, 1] so the
	// weighted sum stays within [0, sum-of-weights].
	Score float64 `json:"score"`

	// Per-signal breakdown, for explainability.
	CF  float64 `json:"cf"`
	CB  float64 `json:"cb"`
	Geo float64 `json:"geo"`
}
