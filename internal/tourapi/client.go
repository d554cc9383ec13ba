// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package tourapi implements the catalog fetch port against the Korean
// public tourism catalog (KorService2 areaBasedList2 endpoint).
//
// Quirks of the upstream handled here:
//   - Error responses arrive as XML bodies with a 200 status; a body that
//     names a service-key registration problem maps to
//     catalog.ErrServiceAuth so ingestion can short-circuit its tier.
//   - The items field is an empty JSON string instead of an object when a
//     page has no rows.
//   - Coordinates arrive as strings; records whose coordinates do not
//     parse are silently dropped at this boundary.
//   - HTTP 429 is retried with exponential backoff, honoring Retry-After.
package tourapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kanjoong/tourin/internal/catalog"
	"github.com/kanjoong/tourin/internal/config"
	"github.com/kanjoong/tourin/internal/metrics"
)

// listPath is the paginated area-based listing endpoint.
const listPath = "/areaBasedList2"

// maxErrorBodySize limits how much of a response body is read back for
// error reporting.
const maxErrorBodySize = 64 * 1024

// authErrorMarker appears in upstream XML error bodies when the service
// key is not registered or rejected.
const authErrorMarker = "SERVICE_KEY_IS_NOT_REGISTERED_ERROR"

// Client fetches catalog pages over HTTP. Safe for concurrent use.
type Client struct {
	cfg    config.TourAPIConfig
	http   *http.Client
	logger zerolog.Logger
}

var _ catalog.Fetcher = (*Client)(nil)

// NewClient creates a catalog fetch client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg config.TourAPIConfig, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://apis.data.go.kr/B551011/KorService2"
	}
	if cfg.AppName == "" {
		cfg.AppName = "Tourin"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "tourapi").Logger(),
	}
}

// FetchList fetches one catalog page. A zero region or content type omits
// that filter entirely. Records with unparseable coordinates are dropped,
// not surfaced as errors.
func (c *Client) FetchList(ctx context.Context, region catalog.RegionCode, page int, contentType catalog.ContentTypeCode, rows int) ([]catalog.PointOfInterest, error) {
	u, err := c.buildURL(region, page, contentType, rows)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("fetch catalog page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues("network_error").Inc()
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("catalog page request: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("read catalog page: %w", err)
	}

	// The upstream signals errors as XML bodies under a 200 status.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '<' {
		if bytes.Contains(trimmed, []byte(authErrorMarker)) {
			metrics.UpstreamRequests.WithLabelValues("auth_error").Inc()
			return nil, fmt.Errorf("catalog page request: %w", catalog.ErrServiceAuth)
		}
		metrics.UpstreamRequests.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("catalog page request: xml error body: %w", catalog.ErrDecode)
	}

	var decoded listResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		metrics.UpstreamRequests.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("decode catalog page: %v: %w", err, catalog.ErrDecode)
	}

	metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return c.toPointsOfInterest(decoded.Response.Body.Items.Item), nil
}

// doRequestWithRetry executes the request, retrying HTTP 429 with
// exponential backoff (1s, 2s, 4s). A Retry-After header in seconds
// overrides the computed delay.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	const maxRetries = 3
	baseDelay := time.Second

	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limited after %d retries", maxRetries)
		}

		delay := baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		c.logger.Warn().
			Dur("retry_delay", delay).
			Int("attempt", attempt+1).
			Msg("catalog service rate limited, retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}

// buildURL assembles the paginated listing URL with filters.
func (c *Client) buildURL(region catalog.RegionCode, page int, contentType catalog.ContentTypeCode, rows int) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL + listPath)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := url.Values{}
	q.Set("serviceKey", c.cfg.ServiceKey)
	q.Set("MobileOS", "ETC")
	q.Set("MobileApp", c.cfg.AppName)
	q.Set("_type", "json")
	q.Set("numOfRows", strconv.Itoa(rows))
	q.Set("pageNo", strconv.Itoa(page))
	if region > 0 {
		q.Set("areaCode", strconv.Itoa(int(region)))
	}
	if contentType > 0 {
		q.Set("contentTypeId", strconv.Itoa(int(contentType)))
	}

	base.RawQuery = q.Encode()
	return base.String(), nil
}

// toPointsOfInterest converts raw upstream items, dropping any record
// whose coordinates are missing or non-numeric.
func (c *Client) toPointsOfInterest(items []rawItem) []catalog.PointOfInterest {
	out := make([]catalog.PointOfInterest, 0, len(items))
	for _, it := range items {
		lat, latErr := strconv.ParseFloat(it.MapY, 64)
		lon, lonErr := strconv.ParseFloat(it.MapX, 64)
		if it.ContentID == "" || latErr != nil || lonErr != nil {
			metrics.UpstreamRecordsDropped.Inc()
			c.logger.Debug().Str("contentid", it.ContentID).Msg("dropped record with unusable coordinates")
			continue
		}

		thumb := it.FirstImage2
		if thumb == "" {
			thumb = it.FirstImage
		}
		typeID, _ := strconv.Atoi(it.ContentTypeID)

		out = append(out, catalog.PointOfInterest{
			ID:            it.ContentID,
			Title:         it.Title,
			Latitude:      lat,
			Longitude:     lon,
			ThumbnailURL:  thumb,
			Category:      it.Cat3,
			Address:       it.Addr1,
			ContentTypeID: typeID,
		})
	}
	return out
}

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// listResponse mirrors the upstream envelope.
type listResponse struct {
	Response struct {
		Body struct {
			Items itemsField `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// itemsField tolerates the upstream sending items as an empty string when
// a page has no rows.
type itemsField struct {
	Item []rawItem `json:"item"`
}

func (f *itemsField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '"' || bytes.Equal(trimmed, []byte("null")) {
		f.Item = nil
		return nil
	}

	type alias itemsField
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	f.Item = a.Item
	return nil
}

// rawItem is one upstream record. Numeric values arrive as strings.
type rawItem struct {
	ContentID     string `json:"contentid"`
	Title         string `json:"title"`
	MapX          string `json:"mapx"`
	MapY          string `json:"mapy"`
	FirstImage    string `json:"firstimage"`
	FirstImage2   string `json:"firstimage2"`
	Cat3          string `json:"cat3"`
	Addr1         string `json:"addr1"`
	ContentTypeID string `json:"contenttypeid"`
}
