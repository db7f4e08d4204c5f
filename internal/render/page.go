package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html.tmpl"))

// mapConfig is the JSON handed to the page script. Leaflet takes [lat, lon].
type mapConfig struct {
	MountID      string               `json:"mountId"`
	Center       [2]float64           `json:"center"`
	Zoom         int                  `json:"zoom"`
	BaseLayers   []domain.TileLayer   `json:"baseLayers"`
	SelectedBase string               `json:"selectedBase"`
	OverlayName  string               `json:"overlayName"`
	RadiusUnit   domain.RadiusUnit    `json:"radiusUnit"`
	LayerControl domain.LayerControl  `json:"layerControl"`
	Legend       domain.LegendControl `json:"legend"`
}

type pageData struct {
	Title       string
	MountID     string
	RenderID    string
	GeneratedAt string
	FeedTitle   string
	Count       int
	Config      template.JS
	Overlay     template.JS
}

// Page writes a standalone HTML page that draws doc with Leaflet.
func Page(w io.Writer, doc domain.MapDocument) error {
	cfg, err := json.Marshal(mapConfig{
		MountID:      doc.MountID,
		Center:       [2]float64{doc.Center.Lat(), doc.Center.Lon()},
		Zoom:         doc.Zoom,
		BaseLayers:   doc.BaseLayers,
		SelectedBase: doc.SelectedBase,
		OverlayName:  doc.OverlayName,
		RadiusUnit:   doc.RadiusUnit,
		LayerControl: doc.LayerControl,
		Legend:       doc.Legend,
	})
	if err != nil {
		return fmt.Errorf("encode map config: %w", err)
	}

	overlay, err := Overlay(doc)
	if err != nil {
		return err
	}

	title := doc.Feed.Title
	if title == "" {
		title = "Earthquakes"
	}

	data := pageData{
		Title:       title,
		MountID:     doc.MountID,
		RenderID:    doc.RenderID,
		GeneratedAt: doc.GeneratedAt.Format(time.RFC3339),
		FeedTitle:   doc.Feed.Title,
		Count:       len(doc.Markers),
		// encoding/json escapes <, > and &, so both payloads are safe inside <script>.
		Config:  template.JS(cfg),
		Overlay: template.JS(overlay),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}
