package domain

import (
	"fmt"
	"html"
)

// Fixed stroke settings shared by every marker.
const (
	markerFillOpacity = 0.7
	markerStrokeColor = "black"
	markerStrokeWidth = 0.5
)

// MarkerStyle holds Leaflet path options for one earthquake marker. JSON names
// match Leaflet's option keys so the style can be handed to it unchanged.
type MarkerStyle struct {
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
}

// Marker is a styled earthquake ready for the overlay layer.
type Marker struct {
	Feature Feature
	Style   MarkerStyle
	Popup   string
}

// Styler derives marker styles from features.
type Styler struct {
	Scale   float64
	Palette Palette
}

// NewStyler returns a Styler for the unit. A zero scale falls back to the
// unit's default.
func NewStyler(unit RadiusUnit, scale float64, palette Palette) Styler {
	if scale == 0 {
		scale = unit.DefaultScale()
	}
	return Styler{Scale: scale, Palette: palette}
}

// Style computes radius from magnitude and fill color from depth.
func (s Styler) Style(f Feature) MarkerStyle {
	return MarkerStyle{
		Radius:      MarkerRadius(f.Mag, s.Scale),
		FillColor:   s.Palette.MarkerColor(f.Depth),
		FillOpacity: markerFillOpacity,
		Color:       markerStrokeColor,
		Weight:      markerStrokeWidth,
	}
}

// Popup renders the HTML shown when a marker is clicked. A feature parsed
// without a magnitude shows "Magnitude: 0".
func Popup(f Feature) string {
	return fmt.Sprintf("<h1>Location: %s</h1><hr><h3>Magnitude: %s</h3><br><h3>Depth: %s</h3>",
		html.EscapeString(f.Place), formatNumber(f.Mag), formatNumber(f.Depth))
}

// BuildMarkers styles every feature. Output order follows input order.
func BuildMarkers(features []Feature, s Styler) []Marker {
	markers := make([]Marker, 0, len(features))
	for _, f := range features {
		markers = append(markers, Marker{
			Feature: f,
			Style:   s.Style(f),
			Popup:   Popup(f),
		})
	}
	return markers
}
