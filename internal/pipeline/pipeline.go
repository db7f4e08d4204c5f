package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

// Transformed is the output of the transform stage.
type Transformed struct {
	Metadata domain.FeedMetadata
	Markers  []domain.Marker
}

// Transformer converts a raw feed body into styled markers.
type Transformer interface {
	Transform(ctx context.Context, body []byte) (Transformed, error)
}

// MarkerPublisher forwards the markers of a composed document downstream.
type MarkerPublisher interface {
	PublishMarkers(ctx context.Context, doc domain.MapDocument) error
}

// Pipeline runs the fetch-transform-compose pass behind every rendered map.
type Pipeline struct {
	source      domain.FeedSource
	transformer Transformer
	publisher   MarkerPublisher
	defaults    Defaults
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline. Pass a nil publisher to skip marker publishing.
func New(source domain.FeedSource, t Transformer, publisher MarkerPublisher, defaults Defaults, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:      source,
		transformer: t,
		publisher:   publisher,
		defaults:    defaults,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a pass has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no map has been rendered yet")
	}
	return nil
}

// Legend returns the legend control a pass would compose, without fetching.
func (p *Pipeline) Legend() domain.LegendControl {
	return domain.Compose(nil, domain.ComposeOptions{
		LegendPosition: p.defaults.LegendPosition,
		Palette:        p.defaults.Palette,
	}).Legend
}

// Run performs one pass: a single fetch, then styling, then composition. It
// never retries. Errors from the fetch or parse stage end the pass.
func (p *Pipeline) Run(ctx context.Context, view View) (domain.MapDocument, error) {
	start := time.Now()
	renderID := uuid.NewString()

	opts, err := view.resolve(p.defaults)
	if err != nil {
		p.metrics.RenderPasses.WithLabelValues("invalid_view").Inc()
		return domain.MapDocument{}, err
	}
	opts.RenderID = renderID

	body, err := p.source.FetchFeed(ctx)
	if err != nil {
		p.metrics.RenderPasses.WithLabelValues("fetch_error").Inc()
		p.logger.Error("fetch feed failed", "render_id", renderID, "error", err)
		return domain.MapDocument{}, err
	}

	out, err := p.transformer.Transform(ctx, body)
	if err != nil {
		p.metrics.RenderPasses.WithLabelValues("parse_error").Inc()
		p.logger.Error("transform feed failed", "render_id", renderID, "error", err)
		return domain.MapDocument{}, err
	}
	p.metrics.FeaturesParsed.Add(float64(len(out.Markers)))

	opts.Feed = out.Metadata
	doc := domain.Compose(out.Markers, opts)

	p.publish(ctx, doc)

	p.metrics.RenderPasses.WithLabelValues("success").Inc()
	p.metrics.MarkersPerPass.Observe(float64(len(doc.Markers)))
	p.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("map rendered",
		"render_id", renderID,
		"markers", len(doc.Markers),
		"base_layer", doc.SelectedBase,
		"duration", time.Since(start),
	)
	return doc, nil
}

// publish forwards markers when a publisher is configured. Failures are logged
// and counted; they do not fail the pass.
func (p *Pipeline) publish(ctx context.Context, doc domain.MapDocument) {
	if p.publisher == nil || len(doc.Markers) == 0 {
		return
	}
	if err := p.publisher.PublishMarkers(ctx, doc); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish markers failed", "render_id", doc.RenderID, "error", err)
		return
	}
	p.metrics.MarkersPublished.Add(float64(len(doc.Markers)))
}
