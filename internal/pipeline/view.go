package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// ErrInvalidView reports a view override outside the accepted ranges.
var ErrInvalidView = errors.New("invalid view")

// View carries optional per-request overrides of the configured map view.
// Field tags match the page's query parameters.
type View struct {
	Lat  *float64 `schema:"lat"`
	Lon  *float64 `schema:"lon"`
	Zoom *int     `schema:"zoom"`
	Base string   `schema:"base"`
}

// Defaults holds the configured map view and composition settings.
type Defaults struct {
	MountID        string
	Center         orb.Point // [lon, lat]
	Zoom           int
	BaseLayer      string
	LegendPosition string
	RadiusUnit     domain.RadiusUnit
	Palette        domain.Palette
}

// resolve merges the view over d and validates the result.
func (v View) resolve(d Defaults) (domain.ComposeOptions, error) {
	opts := domain.ComposeOptions{
		MountID:        d.MountID,
		Center:         d.Center,
		Zoom:           d.Zoom,
		BaseLayer:      d.BaseLayer,
		LegendPosition: d.LegendPosition,
		RadiusUnit:     d.RadiusUnit,
		Palette:        d.Palette,
	}

	if v.Lat != nil {
		if !inRange(*v.Lat, -90, 90) {
			return opts, fmt.Errorf("%w: lat %v out of range", ErrInvalidView, *v.Lat)
		}
		opts.Center[1] = *v.Lat
	}
	if v.Lon != nil {
		if !inRange(*v.Lon, -180, 180) {
			return opts, fmt.Errorf("%w: lon %v out of range", ErrInvalidView, *v.Lon)
		}
		opts.Center[0] = *v.Lon
	}
	if v.Zoom != nil {
		if *v.Zoom < 0 || *v.Zoom > 19 {
			return opts, fmt.Errorf("%w: zoom %d out of range", ErrInvalidView, *v.Zoom)
		}
		opts.Zoom = *v.Zoom
	}
	if v.Base != "" {
		l, ok := domain.BaseLayerByName(v.Base)
		if !ok {
			return opts, fmt.Errorf("%w: unknown base layer %q", ErrInvalidView, v.Base)
		}
		opts.BaseLayer = l.Name
	}
	return opts, nil
}

// inRange reports whether x is finite and within [lo, hi].
func inRange(x, lo, hi float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	return x >= lo && x <= hi
}
