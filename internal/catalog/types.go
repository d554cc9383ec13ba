// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package catalog

import (
	"github.com/kanjoong/tourin/internal/geo"
)

// RegionCode identifies an administrative region in the upstream catalog.
// The zero value means "no region filter".
type RegionCode int

// ContentTypeCode identifies a content category in the upstream catalog.
// The zero value means "no content-type filter".
type ContentTypeCode int

// RegionAll and ContentTypeAll request unfiltered pages.
const (
	RegionAll      RegionCode      = 0
	ContentTypeAll ContentTypeCode = 0
)

// Region pairs an upstream region code with its display name.
type Region struct {
	Code RegionCode
	Name string
}

// ContentType pairs an upstream content-type code with its display name.
type ContentType struct {
	Code ContentTypeCode
	Name string
}

// Regions lists the administrative regions swept during tier-one ingestion,
// in sweep order.
var Regions = []Region{
	{1, "Seoul"},
	{6, "Busan"},
	{4, "Daegu"},
	{2, "Incheon"},
	{5, "Gwangju"},
	{3, "Daejeon"},
	{7, "Ulsan"},
	{8, "Sejong"},
	{31, "Gyeonggi"},
	{32, "Gangwon"},
	{33, "Chungbuk"},
	{34, "Chungnam"},
	{35, "Jeonbuk"},
	{36, "Jeonnam"},
	{37, "Gyeongbuk"},
	{38, "Gyeongnam"},
	{39, "Jeju"},
}

// ContentTypes lists the content categories swept during tier-two
// ingestion, in sweep order.
var ContentTypes = []ContentType{
	{12, "Tourist Attraction"},
	{14, "Cultural Facility"},
	{15, "Festival"},
	{25, "Travel Course"},
	{28, "Leisure Sports"},
	{32, "Lodging"},
	{38, "Shopping"},
	{39, "Restaurant"},
}

// RegionName looks up the display name for a region code.
func RegionName(code RegionCode) (string, bool) {
	for _, r := range Regions {
		if r.Code == code {
			return r.Name, true
		}
	}
	return "", false
}

// ContentTypeName looks up the display name for a content-type code.
func ContentTypeName(code ContentTypeCode) (string, bool) {
	for _, ct := range ContentTypes {
		if ct.Code == code {
			return ct.Name, true
		}
	}
	return "", false
}

// PointOfInterest is a single catalog entry. Identity is the ID string;
// two records with the same ID are duplicates regardless of other fields,
// and the last one merged wins.
type PointOfInterest struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ThumbnailURL  string  `json:"thumbnail_url,omitempty"`
	Category      string  `json:"category"`
	Address       string  `json:"address,omitempty"`
	ContentTypeID int     `json:"content_type_id"`
}

// Location returns the point's coordinates.
func (p PointOfInterest) Location() geo.Point {
	return geo.Point{Lat: p.Latitude, Lon: p.Longitude}
}
