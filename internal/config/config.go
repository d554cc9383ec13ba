// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package config defines Tourin's layered configuration: built-in defaults,
// an optional YAML file, and TOURIN_-prefixed environment variables, loaded
// via Koanf v2 and validated with go-playground/validator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Tourin server and library.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	TourAPI   TourAPIConfig   `koanf:"tourapi"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Collab    CollabConfig    `koanf:"collab"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig controls the HTTP presentation shim.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"readtimeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"writetimeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout" validate:"gt=0"`
}

// TourAPIConfig controls the upstream catalog fetch client.
type TourAPIConfig struct {
	// BaseURL is the catalog service root, e.g.
	// https://apis.data.go.kr/B551011/KorService2
	BaseURL string `koanf:"baseurl" validate:"required,url"`

	// ServiceKey is the upstream API credential. An invalid key produces
	// an auth error that short-circuits the current ingestion tier.
	ServiceKey string `koanf:"servicekey"`

	// AppName identifies this client to the upstream service.
	AppName string `koanf:"appname"`

	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// IngestConfig controls the tiered ingestion sweeps and the bounded
// backfill for referenced ids.
type IngestConfig struct {
	// Regional sweep: RegionPages pages of RegionPageSize rows for each
	// administrative region, all content types.
	RegionPages    int `koanf:"regionpages" validate:"gt=0"`
	RegionPageSize int `koanf:"regionpagesize" validate:"gt=0"`

	// Category sweep: CategoryPages pages of CategoryPageSize rows for
	// each content type, all regions.
	CategoryPages    int `koanf:"categorypages" validate:"gt=0"`
	CategoryPageSize int `koanf:"categorypagesize" validate:"gt=0"`

	// Basic fallback sweep: unfiltered pages fetched when a primary tier
	// fails.
	BasicPages    int `koanf:"basicpages" validate:"gt=0"`
	BasicPageSize int `koanf:"basicpagesize" validate:"gt=0"`

	// Backfill sweep: hard page cap for EnsureLoaded.
	BackfillPages    int `koanf:"backfillpages" validate:"gt=0"`
	BackfillPageSize int `koanf:"backfillpagesize" validate:"gt=0"`

	// PageInterval paces requests in the primary tiers and the backfill;
	// BasicInterval paces the fallback sweep.
	PageInterval  time.Duration `koanf:"pageinterval" validate:"gt=0"`
	BasicInterval time.Duration `koanf:"basicinterval" validate:"gt=0"`
}

// CollabConfig controls the collaborative score port.
type CollabConfig struct {
	// ScoreTimeout bounds a single score lookup. A timeout is absorbed
	// as a zero score, never surfaced.
	ScoreTimeout time.Duration `koanf:"scoretimeout" validate:"gt=0"`

	// ScoresPath optionally points at a JSON file of user -> item -> score
	// used by the static scorer. Empty means all scores are zero.
	ScoresPath string `koanf:"scorespath"`
}

// RecommendConfig controls score fusion.
type RecommendConfig struct {
	CFWeight  float64 `koanf:"cfweight" validate:"gte=0,lte=1"`
	CBWeight  float64 `koanf:"cbweight" validate:"gte=0,lte=1"`
	GeoWeight float64 `koanf:"geoweight" validate:"gte=0,lte=1"`

	// GeoSigmaMeters is the spread of the gaussian proximity term.
	GeoSigmaMeters float64 `koanf:"geosigmameters" validate:"gt=0"`

	// TopK is the default result count when the caller passes none.
	TopK int `koanf:"topk" validate:"gt=0"`
}

// Default returns a Config populated with all built-in defaults. The tier
// shapes mirror the upstream catalog's documented pagination limits.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		TourAPI: TourAPIConfig{
			BaseURL:    "https://apis.data.go.kr/B551011/KorService2",
			ServiceKey: "",
			AppName:    "Tourin",
			Timeout:    10 * time.Second,
		},
		Ingest: IngestConfig{
			RegionPages:      3,
			RegionPageSize:   100,
			CategoryPages:    2,
			CategoryPageSize: 50,
			BasicPages:       10,
			BasicPageSize:    100,
			BackfillPages:    20,
			BackfillPageSize: 100,
			PageInterval:     100 * time.Millisecond,
			BasicInterval:    50 * time.Millisecond,
		},
		Collab: CollabConfig{
			ScoreTimeout: 2 * time.Second,
			ScoresPath:   "",
		},
		Recommend: RecommendConfig{
			CFWeight:       0.55,
			CBWeight:       0.35,
			GeoWeight:      0.10,
			GeoSigmaMeters: 500,
			TopK:           10,
		},
	}
}

// Validate checks field bounds and cross-field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	sum := c.Recommend.CFWeight + c.Recommend.CBWeight + c.Recommend.GeoWeight
	if sum <= 0 {
		return fmt.Errorf("config validation: recommendation weights sum to %f, want > 0", sum)
	}

	return nil
}
