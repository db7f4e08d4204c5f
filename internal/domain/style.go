package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RadiusUnit selects how the browser interprets a marker radius.
type RadiusUnit string

const (
	// RadiusPixels draws fixed-size circle markers; radius is in screen pixels.
	RadiusPixels RadiusUnit = "pixels"
	// RadiusMeters draws geographic circles; radius is in meters on the ground.
	RadiusMeters RadiusUnit = "meters"
)

const (
	// DefaultPixelScale is the pixels-per-magnitude factor used by MarkerSize.
	DefaultPixelScale = 4.0
	// DefaultMeterScale is the meters-per-magnitude factor for RadiusMeters.
	DefaultMeterScale = 20000.0
)

// ParseRadiusUnit validates a configured radius unit.
func ParseRadiusUnit(s string) (RadiusUnit, error) {
	switch RadiusUnit(strings.ToLower(strings.TrimSpace(s))) {
	case RadiusPixels:
		return RadiusPixels, nil
	case RadiusMeters:
		return RadiusMeters, nil
	default:
		return "", fmt.Errorf("unknown radius unit %q", s)
	}
}

// DefaultScale returns the radius factor that fits the unit.
func (u RadiusUnit) DefaultScale() float64 {
	if u == RadiusMeters {
		return DefaultMeterScale
	}
	return DefaultPixelScale
}

// MarkerRadius scales a magnitude linearly. Negative magnitudes yield negative
// radii; there is no clamping.
func MarkerRadius(magnitude, scale float64) float64 {
	return magnitude * scale
}

// MarkerSize is MarkerRadius at the default pixel scale.
func MarkerSize(magnitude float64) float64 {
	return MarkerRadius(magnitude, DefaultPixelScale)
}

// depthThresholds are the exclusive upper bounds of the first five depth
// buckets, in km. The sixth bucket is open-ended.
var depthThresholds = [...]float64{10, 30, 50, 70, 90}

// legendLowerBounds are the lower labels of the six legend rows, in km.
var legendLowerBounds = [...]float64{-10, 10, 30, 50, 70, 90}

// BucketCount is the number of depth buckets.
const BucketCount = len(depthThresholds) + 1

// DepthBucket returns the index (0-5) of the bucket containing depth.
func DepthBucket(depth float64) int {
	for i, t := range depthThresholds {
		if depth < t {
			return i
		}
	}
	return len(depthThresholds)
}

// Palette maps each depth bucket to a CSS color name.
type Palette [BucketCount]string

var (
	// DefaultPalette colors the six depth buckets from shallow to deep.
	DefaultPalette = Palette{"green", "greenyellow", "yellow", "orange", "orangered", "red"}

	// LegacyPalette reproduces the historical "organge" spelling for the
	// 50-70 km bucket. Browsers reject the name, so those markers render
	// without a fill color.
	LegacyPalette = Palette{"green", "greenyellow", "yellow", "organge", "orangered", "red"}
)

// MarkerColor returns the palette color for depth in km.
func (p Palette) MarkerColor(depth float64) string {
	return p[DepthBucket(depth)]
}

// MarkerColor colors depth with DefaultPalette.
func MarkerColor(depth float64) string {
	return DefaultPalette.MarkerColor(depth)
}

// LegendEntry is one swatch row of the depth legend.
type LegendEntry struct {
	Label string  `json:"label"`
	Color string  `json:"color"`
	Lower float64 `json:"lower"`
	// Upper is nil for the open-ended last bucket.
	Upper *float64 `json:"upper,omitempty"`
}

// Legend builds the six legend rows. Each swatch is colored by probing one km
// above the row's lower bound.
func (p Palette) Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(legendLowerBounds))
	for i, from := range legendLowerBounds {
		entry := LegendEntry{
			Color: p.MarkerColor(from + 1),
			Lower: from,
		}
		if i+1 < len(legendLowerBounds) {
			to := legendLowerBounds[i+1]
			entry.Upper = &to
			entry.Label = formatNumber(from) + "–" + formatNumber(to)
		} else {
			entry.Label = formatNumber(from) + "+"
		}
		entries = append(entries, entry)
	}
	return entries
}

// formatNumber renders the shortest decimal that round-trips, e.g. 5, 45.2, -10.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
