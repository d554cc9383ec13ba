// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package catalog

import (
	"context"
	"errors"
)

// Sentinel errors for the fetch boundary. Transport failures that are
// neither auth nor decode errors are returned as plain wrapped errors and
// treated as transient network failures by the ingestion tiers.
var (
	// ErrServiceAuth reports that the upstream rejected the service
	// credential. Ingestion short-circuits the remaining pages of the
	// current tier when it sees this.
	ErrServiceAuth = errors.New("catalog: service credential rejected by upstream")

	// ErrDecode reports an unparseable upstream response body. Individual
	// malformed records are dropped at the fetch boundary instead and do
	// not produce this error.
	ErrDecode = errors.New("catalog: undecodable upstream response")
)

// Fetcher is the catalog fetch port: one paginated query against the
// upstream source. A zero region or content type means no filter. Pages
// are 1-based. Implementations must silently drop records with missing or
// non-numeric coordinates.
type Fetcher interface {
	FetchList(ctx context.Context, region RegionCode, page int, contentType ContentTypeCode, rows int) ([]PointOfInterest, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, region RegionCode, page int, contentType ContentTypeCode, rows int) ([]PointOfInterest, error)

// FetchList calls f.
func (f FetcherFunc) FetchList(ctx context.Context, region RegionCode, page int, contentType ContentTypeCode, rows int) ([]PointOfInterest, error) {
	return f(ctx, region, page, contentType, rows)
}
