// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package tourapi

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kanjoong/tourin/internal/catalog"
)

func TestBreakerFetcher_PassesThroughSuccess(t *testing.T) {
	inner := catalog.FetcherFunc(func(context.Context, catalog.RegionCode, int, catalog.ContentTypeCode, int) ([]catalog.PointOfInterest, error) {
		return []catalog.PointOfInterest{{ID: "1", Title: "ok", Latitude: 37, Longitude: 127}}, nil
	})

	bf := NewBreakerFetcher(inner, zerolog.New(io.Discard))

	recs, err := bf.FetchList(context.Background(), 1, 1, 12, 10)
	if err != nil {
		t.Fatalf("FetchList() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "1" {
		t.Errorf("unexpected records: %+v", recs)
	}
	if bf.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", bf.State())
	}
}

func TestBreakerFetcher_OpensAfterRepeatedFailures(t *testing.T) {
	var calls int
	inner := catalog.FetcherFunc(func(context.Context, catalog.RegionCode, int, catalog.ContentTypeCode, int) ([]catalog.PointOfInterest, error) {
		calls++
		return nil, errors.New("upstream down")
	})

	bf := NewBreakerFetcher(inner, zerolog.New(io.Discard))

	// Trip threshold: >= 60% failures over >= 10 requests.
	for i := 0; i < 15; i++ {
		_, _ = bf.FetchList(context.Background(), 1, 1, 12, 10)
	}

	if bf.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v after repeated failures, want open", bf.State())
	}

	callsWhenOpen := calls
	_, err := bf.FetchList(context.Background(), 1, 1, 12, 10)
	if err == nil {
		t.Fatal("FetchList() = nil error while circuit open")
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want gobreaker.ErrOpenState", err)
	}
	if calls != callsWhenOpen {
		t.Errorf("upstream contacted %d extra times while open", calls-callsWhenOpen)
	}
}

func TestBreakerFetcher_ImplementsFetcher(t *testing.T) {
	var _ catalog.Fetcher = NewBreakerFetcher(
		catalog.FetcherFunc(func(context.Context, catalog.RegionCode, int, catalog.ContentTypeCode, int) ([]catalog.PointOfInterest, error) {
			return nil, nil
		}),
		zerolog.New(io.Discard),
	)
}
