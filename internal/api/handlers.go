// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kanjoong/tourin/internal/catalog"
	"github.com/kanjoong/tourin/internal/geo"
	"github.com/kanjoong/tourin/internal/recommend"
)

// Catalog is the read and backfill surface handlers need from the store.
type Catalog interface {
	IsReady() bool
	Count() int
	Get(id string) (catalog.PointOfInterest, bool)
	Nearby(origin geo.Point, radiusMeters float64) []catalog.PointOfInterest
	EnsureLoaded(ctx context.Context, ids []string) []string
}

// Recommender is the ranking surface handlers need from the engine.
type Recommender interface {
	Recommend(ctx context.Context, userID string, loc *geo.Point, excluding map[string]struct{}, topK int) ([]recommend.Recommendation, error)
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	catalog Catalog
	engine  Recommender
	logger  zerolog.Logger
}

// NewHandler creates the endpoint set over the given core services.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(cat Catalog, engine Recommender, logger zerolog.Logger) *Handler {
	return &Handler{
		catalog: cat,
		engine:  engine,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// HealthLive reports process liveness. Always 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeData(w, h.logger, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady reports whether initial ingestion has settled. Readiness is
// about the pipeline having finished, not about how many records it
// produced: an empty catalog can be ready.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	if !h.catalog.IsReady() {
		writeError(w, h.logger, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "catalog ingestion in progress")
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"count":  h.catalog.Count(),
	})
}

// Destination returns one point of interest by id.
func (h *Handler) Destination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	poi, ok := h.catalog.Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, ErrCodeNotFound, "unknown destination id")
		return
	}
	writeData(w, h.logger, http.StatusOK, poi)
}

// Nearby returns every destination within radius_m meters of (lat, lon).
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "lon must be a number")
		return
	}
	radius, err := strconv.ParseFloat(q.Get("radius_m"), 64)
	if err != nil || radius < 0 {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "radius_m must be a non-negative number")
		return
	}

	results := h.catalog.Nearby(geo.Point{Lat: lat, Lon: lon}, radius)
	writeData(w, h.logger, http.StatusOK, map[string]interface{}{
		"count":        len(results),
		"destinations": results,
	})
}

// recommendRequest is the POST body for the recommendations endpoint.
type recommendRequest struct {
	UserID string `json:"user_id"`

	// Location is optional. Absent, the content and proximity terms are
	// zero and ranking falls to the collaborative score alone.
	Location *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`

	// Excluding lists ids the caller has already seen or saved.
	Excluding []string `json:"excluding"`

	// TopK caps the result count. Zero means the configured default.
	TopK int `json:"top_k"`
}

// Recommendations runs the fusion engine for one user.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}
	if req.UserID == "" {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "user_id is required")
		return
	}
	if req.TopK < 0 {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "top_k must not be negative")
		return
	}

	var loc *geo.Point
	if req.Location != nil {
		loc = &geo.Point{Lat: req.Location.Lat, Lon: req.Location.Lon}
	}

	var excluding map[string]struct{}
	if len(req.Excluding) > 0 {
		excluding = make(map[string]struct{}, len(req.Excluding))
		for _, id := range req.Excluding {
			excluding[id] = struct{}{}
		}
	}

	recs, err := h.engine.Recommend(r.Context(), req.UserID, loc, excluding, req.TopK)
	if err != nil {
		h.logger.Error().Err(err).Str("user", req.UserID).Msg("recommendation query failed")
		writeError(w, h.logger, http.StatusInternalServerError, ErrCodeInternalError, "recommendation query failed")
		return
	}

	writeData(w, h.logger, http.StatusOK, map[string]interface{}{
		"count":           len(recs),
		"recommendations": recs,
	})
}

// backfillRequest is the POST body for the backfill endpoint.
type backfillRequest struct {
	IDs []string `json:"ids"`
}

// Backfill loads the given ids into the catalog if absent, paging the
// upstream within the configured budget. Ids still missing afterwards are
// reported back; exhaustion is not an error.
func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, ErrCodeBadRequest, "ids must not be empty")
		return
	}

	missing := h.catalog.EnsureLoaded(r.Context(), req.IDs)
	writeData(w, h.logger, http.StatusOK, map[string]interface{}{
		"requested": len(req.IDs),
		"missing":   missing,
	})
}
