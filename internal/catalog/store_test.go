// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package catalog

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/kanjoong/tourin/internal/config"
	"github.com/kanjoong/tourin/internal/geo"
)

// capturePublisher records published messages by topic.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (c *capturePublisher) Publish(topic string, _ ...*message.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func (c *capturePublisher) count(topic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.topics {
		if t == topic {
			n++
		}
	}
	return n
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		RegionPages:      1,
		RegionPageSize:   10,
		CategoryPages:    1,
		CategoryPageSize: 10,
		BasicPages:       3,
		BasicPageSize:    10,
		BackfillPages:    5,
		BackfillPageSize: 10,
		PageInterval:     time.Microsecond,
		BasicInterval:    time.Microsecond,
	}
}

func poi(id, title string, lat, lon float64) PointOfInterest {
	return PointOfInterest{
		ID:        id,
		Title:     title,
		Latitude:  lat,
		Longitude: lon,
		Category:  "A0101",
	}
}

func noopFetcher() Fetcher {
	return FetcherFunc(func(context.Context, RegionCode, int, ContentTypeCode, int) ([]PointOfInterest, error) {
		return nil, nil
	})
}

func TestStore_MergeDedupIdempotence(t *testing.T) {
	s := NewStore(testIngestConfig(), noopFetcher(), nil, testLogger())

	first := poi("100", "old title", 37.0, 127.0)
	last := poi("100", "new title", 37.5, 127.5)

	s.Merge([]PointOfInterest{first})
	s.Merge([]PointOfInterest{last})
	s.Merge([]PointOfInterest{last})
	s.Merge([]PointOfInterest{last})

	if got := s.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}

	got, ok := s.Get("100")
	if !ok {
		t.Fatal("Get(100) not found")
	}
	if got.Title != "new title" {
		t.Errorf("last write did not win: Title = %q", got.Title)
	}
}

func TestStore_MergeEmptyBatch(t *testing.T) {
	pub := &capturePublisher{}
	s := NewStore(testIngestConfig(), noopFetcher(), pub, testLogger())

	s.Merge(nil)
	s.Merge([]PointOfInterest{})

	if got := s.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if got := pub.count(TopicMerged); got != 0 {
		t.Errorf("empty merges published %d events, want 0", got)
	}
}

func TestStore_AllSortedByID(t *testing.T) {
	s := NewStore(testIngestConfig(), noopFetcher(), nil, testLogger())
	s.Merge([]PointOfInterest{
		poi("30", "c", 37, 127),
		poi("10", "a", 37, 127),
		poi("20", "b", 37, 127),
	})

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d items, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("All() not sorted: %q before %q", all[i-1].ID, all[i].ID)
		}
	}
}

func TestStore_Nearby(t *testing.T) {
	s := NewStore(testIngestConfig(), noopFetcher(), nil, testLogger())

	origin := geo.Point{Lat: 37.5665, Lon: 126.9780}
	s.Merge([]PointOfInterest{
		poi("close", "city hall", 37.5663, 126.9779), // tens of meters away
		poi("mid", "palace", 37.5796, 126.9770),      // ~1.5 km away
		poi("far", "busan", 35.1796, 129.0756),       // hundreds of km away
	})

	tests := []struct {
		name    string
		radius  float64
		wantIDs []string
	}{
		{"tight radius", 500, []string{"close"}},
		{"city radius", 5000, []string{"close", "mid"}},
		{"country radius", 500000, []string{"close", "far", "mid"}},
		{"zero radius", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Nearby(origin, tt.radius)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Nearby() returned %d items, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("Nearby()[%d].ID = %q, want %q", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestStore_ReadinessMonotonic(t *testing.T) {
	pub := &capturePublisher{}
	s := NewStore(testIngestConfig(), noopFetcher(), pub, testLogger())

	if s.IsReady() {
		t.Fatal("new store is ready before ingestion")
	}

	s.markReady()
	if !s.IsReady() {
		t.Fatal("store not ready after markReady")
	}

	// A second flip must be a no-op and must not republish.
	s.markReady()
	if !s.IsReady() {
		t.Fatal("readiness reverted")
	}
	if got := pub.count(TopicReady); got != 1 {
		t.Errorf("ready event published %d times, want 1", got)
	}
}

func TestStore_MergePublishesEvent(t *testing.T) {
	pub := &capturePublisher{}
	s := NewStore(testIngestConfig(), noopFetcher(), pub, testLogger())

	s.Merge([]PointOfInterest{poi("1", "a", 37, 127)})
	s.Merge([]PointOfInterest{poi("2", "b", 37, 127)})

	if got := pub.count(TopicMerged); got != 2 {
		t.Errorf("merged events = %d, want 2", got)
	}
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := NewStore(testIngestConfig(), noopFetcher(), nil, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Merge([]PointOfInterest{poi("100", "writer", float64(n), float64(j))})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.All()
				s.Get("100")
				s.Count()
			}
		}()
	}
	wg.Wait()

	if got := s.Count(); got != 1 {
		t.Errorf("Count() = %d after concurrent same-id merges, want 1", got)
	}
}

func TestRegionAndContentTypeTables(t *testing.T) {
	if len(Regions) != 17 {
		t.Errorf("len(Regions) = %d, want 17", len(Regions))
	}
	if len(ContentTypes) != 8 {
		t.Errorf("len(ContentTypes) = %d, want 8", len(ContentTypes))
	}

	if name, ok := RegionName(39); !ok || name != "Jeju" {
		t.Errorf("RegionName(39) = %q, %v; want Jeju, true", name, ok)
	}
	if _, ok := RegionName(999); ok {
		t.Error("RegionName(999) = true, want false")
	}
	if name, ok := ContentTypeName(39); !ok || name != "Restaurant" {
		t.Errorf("ContentTypeName(39) = %q, %v; want Restaurant, true", name, ok)
	}
	if _, ok := ContentTypeName(13); ok {
		t.Error("ContentTypeName(13) = true, want false")
	}
}
