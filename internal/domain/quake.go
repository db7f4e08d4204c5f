package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// FeedSource returns the raw body of an earthquake GeoJSON feed.
type FeedSource interface {
	FetchFeed(ctx context.Context) ([]byte, error)
}

// Feature is one earthquake record as published in the feed.
type Feature struct {
	ID    string
	Place string
	Mag   float64
	Depth float64   // km, third geometry coordinate
	Point orb.Point // [lon, lat]
	Time  time.Time
	URL   string
}

// FeedMetadata mirrors the feed's "metadata" member.
type FeedMetadata struct {
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
	Generated time.Time `json:"generated,omitempty"`
	Count     int       `json:"count"`
}

// FeatureCollection holds the parsed features in feed order.
type FeatureCollection struct {
	Metadata FeedMetadata
	Features []Feature
}

// USGS GeoJSON wire types. Geometry is decoded by hand because orb.Point
// keeps only two coordinates and the depth lives in the third.

type rawCollection struct {
	Metadata rawMetadata  `json:"metadata"`
	Features []rawFeature `json:"features"`
}

type rawMetadata struct {
	Generated int64  `json:"generated"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Count     int    `json:"count"`
}

type rawFeature struct {
	ID         string        `json:"id"`
	Properties rawProperties `json:"properties"`
	Geometry   *rawGeometry  `json:"geometry"`
}

type rawProperties struct {
	Place string   `json:"place"`
	Mag   *float64 `json:"mag"`
	Time  int64    `json:"time"`
	URL   string   `json:"url"`
}

type rawGeometry struct {
	Coordinates []float64 `json:"coordinates"`
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection body. Features keep
// their input order. Missing fields decode to zero values.
func ParseFeatureCollection(data []byte) (FeatureCollection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return FeatureCollection{}, fmt.Errorf("parse feature collection: %w", err)
	}

	features := make([]Feature, 0, len(raw.Features))
	for _, rf := range raw.Features {
		features = append(features, toFeature(rf))
	}

	return FeatureCollection{
		Metadata: FeedMetadata{
			Title:     raw.Metadata.Title,
			URL:       raw.Metadata.URL,
			Generated: fromEpochMillis(raw.Metadata.Generated),
			Count:     raw.Metadata.Count,
		},
		Features: features,
	}, nil
}

func toFeature(rf rawFeature) Feature {
	f := Feature{
		ID:    rf.ID,
		Place: rf.Properties.Place,
		Time:  fromEpochMillis(rf.Properties.Time),
		URL:   rf.Properties.URL,
	}
	if rf.Properties.Mag != nil {
		f.Mag = *rf.Properties.Mag
	}
	if rf.Geometry != nil {
		coords := rf.Geometry.Coordinates
		if len(coords) >= 2 {
			f.Point = orb.Point{coords[0], coords[1]}
		}
		if len(coords) >= 3 {
			f.Depth = coords[2]
		}
	}
	return f
}

func fromEpochMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
