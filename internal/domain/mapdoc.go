package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// TileLayer is a selectable base map.
type TileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

var (
	// StreetLayer is the OpenStreetMap standard tile layer.
	StreetLayer = TileLayer{
		Name:        "Street",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	}

	// TopoLayer is the OpenTopoMap tile layer.
	TopoLayer = TileLayer{
		Name: "Topography",
		URL:  "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: `Map data: &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, ` +
			`<a href="http://viewfinderpanoramas.org">SRTM</a> | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a> ` +
			`(<a href="https://creativecommons.org/licenses/by-sa/3.0/">CC-BY-SA</a>)`,
	}
)

// BaseLayers lists the base maps in control order.
func BaseLayers() []TileLayer {
	return []TileLayer{StreetLayer, TopoLayer}
}

// BaseLayerByName finds a base layer, ignoring case.
func BaseLayerByName(name string) (TileLayer, bool) {
	for _, l := range BaseLayers() {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return TileLayer{}, false
}

// Legend positions accepted by Leaflet controls.
var legendPositions = []string{"topleft", "topright", "bottomleft", "bottomright"}

// ParseLegendPosition validates a Leaflet control corner.
func ParseLegendPosition(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range legendPositions {
		if s == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown legend position %q", s)
}

const (
	// OverlayName labels the earthquake layer in the layer control.
	OverlayName = "Earthquakes"
	// LegendTitle heads the depth legend.
	LegendTitle = "Depth (km)"
)

// LayerControl configures the base/overlay toggle.
type LayerControl struct {
	Collapsed bool `json:"collapsed"`
}

// LegendControl is the depth legend anchored to a map corner.
type LegendControl struct {
	Position string        `json:"position"`
	Title    string        `json:"title"`
	Entries  []LegendEntry `json:"entries"`
}

// MapDocument is everything the browser needs to draw one map.
type MapDocument struct {
	RenderID     string
	GeneratedAt  time.Time
	MountID      string
	Center       orb.Point // [lon, lat]
	Zoom         int
	BaseLayers   []TileLayer
	SelectedBase string
	OverlayName  string
	RadiusUnit   RadiusUnit
	Markers      []Marker
	LayerControl LayerControl
	Legend       LegendControl
	Feed         FeedMetadata
}

// ComposeOptions carries the per-pass settings for Compose.
type ComposeOptions struct {
	RenderID       string
	MountID        string
	Center         orb.Point
	Zoom           int
	BaseLayer      string
	LegendPosition string
	RadiusUnit     RadiusUnit
	Palette        Palette
	Feed           FeedMetadata
}

// Compose assembles a map document around the given markers. Every call
// returns a fresh document; the markers slice is copied.
func Compose(markers []Marker, opts ComposeOptions) MapDocument {
	selected := StreetLayer.Name
	if l, ok := BaseLayerByName(opts.BaseLayer); ok {
		selected = l.Name
	}

	position := opts.LegendPosition
	if position == "" {
		position = "bottomright"
	}

	unit := opts.RadiusUnit
	if unit == "" {
		unit = RadiusPixels
	}

	return MapDocument{
		RenderID:     opts.RenderID,
		GeneratedAt:  clock.Now().UTC(),
		MountID:      opts.MountID,
		Center:       opts.Center,
		Zoom:         opts.Zoom,
		BaseLayers:   BaseLayers(),
		SelectedBase: selected,
		OverlayName:  OverlayName,
		RadiusUnit:   unit,
		Markers:      append([]Marker(nil), markers...),
		LayerControl: LayerControl{Collapsed: false},
		Legend: LegendControl{
			Position: position,
			Title:    LegendTitle,
			Entries:  opts.Palette.Legend(),
		},
		Feed: opts.Feed,
	}
}
