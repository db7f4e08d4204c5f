package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/pipeline"
	"github.com/couchcryptid/quake-map-service/internal/render"
)

var (
	renderOut    string
	renderFormat string
	renderLat    float64
	renderLon    float64
	renderZoom   int
	renderBase   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the earthquake map once and exit",
	Long:  `Runs a single render pass and writes either the standalone HTML page or the GeoJSON marker overlay. Exits non-zero when the feed cannot be fetched or parsed.`,
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "-", "Output file, - for stdout")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "F", "html", "Output format: html or geojson")
	renderCmd.Flags().Float64Var(&renderLat, "lat", 0, "Override the map center latitude")
	renderCmd.Flags().Float64Var(&renderLon, "lon", 0, "Override the map center longitude")
	renderCmd.Flags().IntVar(&renderZoom, "zoom", 0, "Override the initial zoom")
	renderCmd.Flags().StringVar(&renderBase, "base", "", "Initially selected base layer")
}

func runRender(cmd *cobra.Command, _ []string) error {
	if renderFormat != "html" && renderFormat != "geojson" {
		return fmt.Errorf("unknown format %q: want html or geojson", renderFormat)
	}

	a, err := newApp(cmd.Context(), renderOut == "-")
	if err != nil {
		return err
	}
	defer a.Close()

	view := pipeline.View{Base: renderBase}
	if cmd.Flags().Changed("lat") {
		view.Lat = &renderLat
	}
	if cmd.Flags().Changed("lon") {
		view.Lon = &renderLon
	}
	if cmd.Flags().Changed("zoom") {
		view.Zoom = &renderZoom
	}

	doc, err := a.pipeline.Run(cmd.Context(), view)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := encode(&buf, doc, renderFormat); err != nil {
		return err
	}

	if err := writeOutput(renderOut, cmd.OutOrStdout(), buf.Bytes()); err != nil {
		return err
	}
	a.logger.Info("map written", "out", renderOut, "format", renderFormat, "markers", len(doc.Markers))
	return nil
}

func encode(w io.Writer, doc domain.MapDocument, format string) error {
	if format == "geojson" {
		data, err := render.Overlay(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return render.Page(w, doc)
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // rendered map is public
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
