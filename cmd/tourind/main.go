// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Tourind serves a tourism destination catalog with personalized
// recommendations.
//
// On startup the daemon launches a tiered background ingestion of the
// upstream catalog service and serves HTTP immediately; /readyz flips once
// ingestion settles. Recommendations fuse a collaborative affinity score,
// a content similarity score, and a proximity score per query.
//
// # Configuration
//
// Configuration layers built-in defaults, an optional YAML file (flag
// -config or TOURIN_CONFIG), and TOURIN_* environment variables, e.g.
//
//	TOURIN_TOURAPI_SERVICEKEY=your-key \
//	TOURIN_SERVER_ADDR=:8475 \
//	tourind
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/kanjoong/tourin/internal/api"
	"github.com/kanjoong/tourin/internal/catalog"
	"github.com/kanjoong/tourin/internal/collab"
	"github.com/kanjoong/tourin/internal/config"
	"github.com/kanjoong/tourin/internal/logging"
	"github.com/kanjoong/tourin/internal/recommend"
	"github.com/kanjoong/tourin/internal/tourapi"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (overrides TOURIN_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("upstream", cfg.TourAPI.BaseURL).
		Bool("servicekey_set", cfg.TourAPI.ServiceKey != "").
		Msg("Starting Tourin")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Upstream client behind a circuit breaker. The breaker sheds load
	// from a failing upstream; the tiers degrade on their own.
	fetcher := tourapi.NewBreakerFetcher(tourapi.NewClient(cfg.TourAPI, logger), logger)

	// In-process event bus: the store publishes merge and ready events,
	// the engine subscribes to invalidate its feature index.
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	store := catalog.NewStore(cfg.Ingest, fetcher, bus, logger)

	scorer, err := buildScorer(cfg.Collab)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load collaborative scores")
	}

	engine, err := recommend.NewEngine(cfg.Recommend, store, scorer, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation engine")
	}
	if err := engine.Subscribe(ctx, bus); err != nil {
		logging.Fatal().Err(err).Msg("Failed to subscribe engine to catalog events")
	}

	store.StartIngestion(ctx)
	logging.Info().Msg("Background ingestion started")

	handler := api.NewHandler(store, engine, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildScorer loads the static collaborative table when configured and
// wraps it with the per-call deadline. Without a scores file every user is
// cold-start and ranking falls to content and proximity.
func buildScorer(cfg config.CollabConfig) (collab.Scorer, error) {
	var inner collab.Scorer
	if cfg.ScoresPath != "" {
		static, err := collab.LoadStaticScorer(cfg.ScoresPath)
		if err != nil {
			return nil, err
		}
		inner = static
	} else {
		inner = collab.NewStaticScorer(nil)
	}
	return collab.NewBoundedScorer(inner, cfg.ScoreTimeout, logging.Logger()), nil
}
