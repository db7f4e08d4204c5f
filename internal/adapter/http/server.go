package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/pipeline"
	"github.com/couchcryptid/quake-map-service/internal/render"
)

// MapRenderer runs one render pass per request.
type MapRenderer interface {
	Run(ctx context.Context, view pipeline.View) (domain.MapDocument, error)
	Legend() domain.LegendControl
}

// Server serves the earthquake map alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	renderer   MapRenderer
	decoder    *schema.Decoder
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the map page, its JSON APIs, and the
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, renderer MapRenderer, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		renderer: renderer,
		decoder:  decoder,
		logger:   logger,
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /api/markers", s.handleMarkers)
	mux.HandleFunc("GET /api/legend", s.handleLegend)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.render(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.Page(&buf, doc); err != nil {
		s.logger.Error("render page failed", "render_id", doc.RenderID, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "render page failed"})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.render(w, r)
	if !ok {
		return
	}

	data, err := render.Overlay(doc)
	if err != nil {
		s.logger.Error("encode overlay failed", "render_id", doc.RenderID, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode overlay failed"})
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Render-Id", doc.RenderID)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client went away
}

func (s *Server) handleLegend(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.renderer.Legend())
}

// render decodes the view from the query string and runs one pass. On failure
// it writes the error response and returns false.
func (s *Server) render(w http.ResponseWriter, r *http.Request) (domain.MapDocument, bool) {
	var view pipeline.View
	if err := s.decoder.Decode(&view, r.URL.Query()); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return domain.MapDocument{}, false
	}

	doc, err := s.renderer.Run(r.Context(), view)
	switch {
	case errors.Is(err, pipeline.ErrInvalidView):
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return domain.MapDocument{}, false
	case err != nil:
		sharedobs.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return domain.MapDocument{}, false
	}
	return doc, true
}
