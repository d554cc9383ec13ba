// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

// countingFetcher wraps a Fetcher and counts calls.
type countingFetcher struct {
	inner Fetcher
	calls atomic.Int64
}

func (c *countingFetcher) FetchList(ctx context.Context, region RegionCode, page int, ct ContentTypeCode, rows int) ([]PointOfInterest, error) {
	c.calls.Add(1)
	return c.inner.FetchList(ctx, region, page, ct, rows)
}

// uniqueRecordsFetcher returns one distinct record per (region, page, ct).
func uniqueRecordsFetcher() Fetcher {
	return FetcherFunc(func(_ context.Context, region RegionCode, page int, ct ContentTypeCode, _ int) ([]PointOfInterest, error) {
		id := fmt.Sprintf("r%d-p%d-c%d", region, page, ct)
		return []PointOfInterest{poi(id, id, 37, 127)}, nil
	})
}

func TestRunIngestion_AllTiersSucceed(t *testing.T) {
	fetcher := &countingFetcher{inner: uniqueRecordsFetcher()}
	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())

	s.runIngestion(context.Background())

	if !s.IsReady() {
		t.Fatal("store not ready after ingestion")
	}

	// 17 regions x 1 page + 8 content types x 1 page, no fallback.
	wantCalls := int64(len(Regions) + len(ContentTypes))
	if got := fetcher.calls.Load(); got != wantCalls {
		t.Errorf("fetch calls = %d, want %d", got, wantCalls)
	}
	if got := s.Count(); got != int(wantCalls) {
		t.Errorf("Count() = %d, want %d", got, wantCalls)
	}
}

func TestRunIngestion_RegionalFailureFallsBackToBasic(t *testing.T) {
	var calls atomic.Int64
	fetcher := FetcherFunc(func(_ context.Context, region RegionCode, page int, ct ContentTypeCode, _ int) ([]PointOfInterest, error) {
		n := calls.Add(1)
		// Filtered requests fail; the unfiltered basic sweep succeeds.
		if region != RegionAll || ct != ContentTypeAll {
			return nil, errors.New("upstream unavailable")
		}
		return []PointOfInterest{poi(fmt.Sprintf("basic-%d", n), "b", 37, 127)}, nil
	})

	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())
	s.runIngestion(context.Background())

	if !s.IsReady() {
		t.Fatal("store not ready after fallback")
	}
	// Basic sweep ran all 3 configured pages.
	if got := s.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3 records from basic sweep", got)
	}
}

func TestRunIngestion_AuthErrorShortCircuitsTier(t *testing.T) {
	var filtered atomic.Int64
	fetcher := FetcherFunc(func(_ context.Context, region RegionCode, _ int, ct ContentTypeCode, _ int) ([]PointOfInterest, error) {
		if region != RegionAll || ct != ContentTypeAll {
			filtered.Add(1)
			return nil, fmt.Errorf("fetch: %w", ErrServiceAuth)
		}
		return []PointOfInterest{poi("basic", "b", 37, 127)}, nil
	})

	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())
	s.runIngestion(context.Background())

	// The very first filtered page fails with an auth error; no further
	// filtered pages may be attempted.
	if got := filtered.Load(); got != 1 {
		t.Errorf("filtered fetches after auth error = %d, want 1", got)
	}
	if !s.IsReady() {
		t.Fatal("store not ready after auth failure path")
	}
	if _, ok := s.Get("basic"); !ok {
		t.Error("basic sweep records missing after auth fallback")
	}
}

func TestRunIngestion_TotalFailureStillReady(t *testing.T) {
	fetcher := FetcherFunc(func(context.Context, RegionCode, int, ContentTypeCode, int) ([]PointOfInterest, error) {
		return nil, errors.New("network down")
	})

	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())
	s.runIngestion(context.Background())

	if !s.IsReady() {
		t.Fatal("store must reach readiness even under total network failure")
	}
	if got := s.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestRunIngestion_ReadyEventPublishedOnce(t *testing.T) {
	pub := &capturePublisher{}
	s := NewStore(testIngestConfig(), uniqueRecordsFetcher(), pub, testLogger())

	s.runIngestion(context.Background())
	s.runIngestion(context.Background())

	if got := pub.count(TopicReady); got != 1 {
		t.Errorf("ready events = %d, want 1", got)
	}
}

func TestEnsureLoaded_AlreadyPresent(t *testing.T) {
	fetcher := &countingFetcher{inner: uniqueRecordsFetcher()}
	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())
	s.Merge([]PointOfInterest{poi("fav-1", "a", 37, 127)})

	missing := s.EnsureLoaded(context.Background(), []string{"fav-1"})

	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
	if got := fetcher.calls.Load(); got != 0 {
		t.Errorf("fetch calls = %d, want 0 when nothing is missing", got)
	}
}

func TestEnsureLoaded_EarlyExitWhenFound(t *testing.T) {
	var page2 atomic.Bool
	fetcher := &countingFetcher{inner: FetcherFunc(func(_ context.Context, _ RegionCode, page int, _ ContentTypeCode, _ int) ([]PointOfInterest, error) {
		if page == 2 {
			page2.Store(true)
			return []PointOfInterest{poi("fav-7", "found", 37, 127)}, nil
		}
		return []PointOfInterest{poi(fmt.Sprintf("other-%d", page), "x", 37, 127)}, nil
	})}

	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())
	missing := s.EnsureLoaded(context.Background(), []string{"fav-7"})

	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (early exit after the id appears)", got)
	}
}

func TestEnsureLoaded_PageCapExhaustion(t *testing.T) {
	// The upstream never returns the requested id; the sweep must stop at
	// the page cap and report the id as still missing.
	fetcher := &countingFetcher{inner: FetcherFunc(func(_ context.Context, _ RegionCode, page int, _ ContentTypeCode, _ int) ([]PointOfInterest, error) {
		return []PointOfInterest{poi(fmt.Sprintf("noise-%d", page), "x", 37, 127)}, nil
	})}

	cfg := testIngestConfig()
	s := NewStore(cfg, fetcher, nil, testLogger())
	missing := s.EnsureLoaded(context.Background(), []string{"never-present"})

	if len(missing) != 1 || missing[0] != "never-present" {
		t.Errorf("missing = %v, want [never-present]", missing)
	}
	if got := fetcher.calls.Load(); got != int64(cfg.BackfillPages) {
		t.Errorf("fetch calls = %d, want page cap %d", got, cfg.BackfillPages)
	}
}

func TestEnsureLoaded_FetchErrorAbsorbed(t *testing.T) {
	fetcher := FetcherFunc(func(context.Context, RegionCode, int, ContentTypeCode, int) ([]PointOfInterest, error) {
		return nil, errors.New("boom")
	})

	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())
	missing := s.EnsureLoaded(context.Background(), []string{"fav-1", "fav-2"})

	if len(missing) != 2 {
		t.Errorf("missing = %v, want both requested ids", missing)
	}
}

func TestEnsureLoaded_MissingSorted(t *testing.T) {
	fetcher := FetcherFunc(func(context.Context, RegionCode, int, ContentTypeCode, int) ([]PointOfInterest, error) {
		return nil, errors.New("down")
	})

	s := NewStore(testIngestConfig(), fetcher, nil, testLogger())
	missing := s.EnsureLoaded(context.Background(), []string{"zz", "aa", "mm"})

	want := []string{"aa", "mm", "zz"}
	for i, id := range want {
		if missing[i] != id {
			t.Fatalf("missing = %v, want %v", missing, want)
		}
	}
}
