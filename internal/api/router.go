// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires the endpoint set into a chi router with the shared
// middleware stack.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(h *Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.HealthLive)
	r.Get("/readyz", h.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/destinations/nearby", h.Nearby)
		r.Get("/destinations/{id}", h.Destination)
		r.Post("/recommendations", h.Recommendations)
		r.Post("/backfill", h.Backfill)
	})

	return r
}

// requestLogging emits one structured line per request after it is served.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func requestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Msg("request served")
		})
	}
}
