package render

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// OverlayCollection converts the document's markers into a GeoJSON
// FeatureCollection. Each feature carries the popup HTML and the Leaflet path
// options under "style"; depth, which the point geometry cannot hold, is a
// property.
func OverlayCollection(doc domain.MapDocument) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range doc.Markers {
		f := geojson.NewFeature(m.Feature.Point)
		f.ID = m.Feature.ID
		f.Properties["id"] = m.Feature.ID
		f.Properties["place"] = m.Feature.Place
		f.Properties["mag"] = m.Feature.Mag
		f.Properties["depth"] = m.Feature.Depth
		if !m.Feature.Time.IsZero() {
			f.Properties["time"] = m.Feature.Time.UnixMilli()
		}
		if m.Feature.URL != "" {
			f.Properties["url"] = m.Feature.URL
		}
		f.Properties["popup"] = m.Popup
		f.Properties["style"] = m.Style
		fc.Append(f)
	}
	return fc
}

// Overlay encodes the document's markers as GeoJSON.
func Overlay(doc domain.MapDocument) ([]byte, error) {
	data, err := OverlayCollection(doc).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	return data, nil
}
