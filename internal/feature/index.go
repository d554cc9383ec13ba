// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

// Package feature maintains the content feature index: every point of
// interest is projected to a numeric vector of planar coordinates plus a
// one-hot category encoding, enabling cheap content-similarity queries
// that do not depend on collaborative history.
//
// The category vocabulary is derived from the records an index is built
// with, in first-seen order, and is frozen for the lifetime of that index
// instance. A rebuild is a full replacement; vectors from an older index
// are not comparable with a newer one.
package feature

import (
	"math"

	"github.com/kanjoong/tourin/internal/catalog"
	"github.com/kanjoong/tourin/internal/geo"
	"github.com/kanjoong/tourin/internal/metrics"
)

// earthRadiusMeters is the spherical-Mercator projection radius.
const earthRadiusMeters = 6378137.0

// spatialDims counts the leading planar dimensions of every vector.
const spatialDims = 2

// Index answers similarity queries against a fixed snapshot of records.
// Immutable after construction and safe for concurrent use.
type Index struct {
	vocab   map[string]int
	vectors map[string][]float64
	dims    int
}

// New builds an index over the given records. The category vocabulary is
// assigned in first-seen order over the input slice.
func New(records []catalog.PointOfInterest) *Index {
	vocab := make(map[string]int)
	for _, rec := range records {
		if _, seen := vocab[rec.Category]; !seen {
			vocab[rec.Category] = len(vocab)
		}
	}

	dims := spatialDims + len(vocab)
	vectors := make(map[string][]float64, len(records))
	for _, rec := range records {
		v := make([]float64, dims)
		v[0], v[1] = project(rec.Latitude, rec.Longitude)
		// An unknown category leaves the one-hot block all zero.
		if idx, ok := vocab[rec.Category]; ok {
			v[spatialDims+idx] = 1
		}
		vectors[rec.ID] = v
	}

	metrics.IndexRebuilds.Inc()
	return &Index{vocab: vocab, vectors: vectors, dims: dims}
}

// Dims returns the vector dimensionality of this index instance.
func (ix *Index) Dims() int {
	return ix.dims
}

// Size returns the number of indexed records.
func (ix *Index) Size() int {
	return len(ix.vectors)
}

// QueryVector projects a bare location into this index's vector space.
// The category block is zero: a location alone carries no category
// preference.
func (ix *Index) QueryVector(loc geo.Point) []float64 {
	v := make([]float64, ix.dims)
	v[0], v[1] = project(loc.Lat, loc.Lon)
	return v
}

// Similarity returns the cosine similarity between the stored vector for
// id and the query vector, clamped to [0, 1]. Unknown ids, zero-magnitude
// vectors, and dimension mismatches all score 0.
func (ix *Index) Similarity(id string, query []float64) float64 {
	stored, ok := ix.vectors[id]
	if !ok || len(stored) != len(query) {
		return 0
	}
	return cosine(stored, query)
}

// cosine computes cosine similarity clamped to [0, 1]. A zero-magnitude
// operand yields 0.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	mag := math.Sqrt(na) * math.Sqrt(nb)
	if mag == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, dot/mag))
}

// project maps (lat, lon) degrees to planar spherical-Mercator meters.
func project(lat, lon float64) (x, y float64) {
	rad := math.Pi / 180.0
	x = lon * rad * earthRadiusMeters
	y = math.Log(math.Tan(math.Pi/4+lat*rad/2)) * earthRadiusMeters
	return x, y
}
