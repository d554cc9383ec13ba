// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package api exposes the catalog and recommendation core over HTTP.
// The transport is a thin shim: handlers parse, delegate, and render;
// every decision lives in the core packages.
package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Response is the envelope for every API payload.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error carries a machine-readable code and a human-readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used across handlers.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, logger zerolog.Logger, status int, data interface{}) {
	writeJSON(w, logger, status, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, status int, code, message string) {
	writeJSON(w, logger, status, Response{Success: false, Error: &Error{Code: code, Message: message}})
}
