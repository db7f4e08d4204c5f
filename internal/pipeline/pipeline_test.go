package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/couchcryptid/quake-map-service/internal/pipeline"
)

// --- mocks ---

type mockSource struct {
	body  []byte
	err   error
	calls int
}

func (m *mockSource) FetchFeed(_ context.Context) ([]byte, error) {
	m.calls++
	return m.body, m.err
}

type mockPublisher struct {
	docs []domain.MapDocument
	err  error
}

func (m *mockPublisher) PublishMarkers(_ context.Context, doc domain.MapDocument) error {
	m.docs = append(m.docs, doc)
	return m.err
}

const oneQuakeFeed = `{
  "type": "FeatureCollection",
  "metadata": {"title": "USGS All Earthquakes, Past Week", "count": 1},
  "features": [
    {
      "type": "Feature",
      "id": "x1",
      "properties": {"mag": 6.1, "place": "X"},
      "geometry": {"type": "Point", "coordinates": [-120.5, 36.2, 45.2]}
    }
  ]
}`

func testDefaults() pipeline.Defaults {
	return pipeline.Defaults{
		MountID:        "map",
		Center:         orb.Point{-95.71, 37.09},
		Zoom:           5,
		BaseLayer:      domain.StreetLayer.Name,
		LegendPosition: "bottomright",
		RadiusUnit:     domain.RadiusPixels,
		Palette:        domain.DefaultPalette,
	}
}

func newTestPipeline(src domain.FeedSource, pub pipeline.MarkerPublisher) (*pipeline.Pipeline, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	styler := domain.NewStyler(domain.RadiusPixels, 0, domain.DefaultPalette)
	tfm := pipeline.NewTransformer(styler, slog.Default())
	return pipeline.New(src, tfm, pub, testDefaults(), slog.Default(), metrics), metrics
}

func ptr[T any](v T) *T { return &v }

// --- tests ---

func TestPipeline_Run_OneQuake(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })

	src := &mockSource{body: []byte(oneQuakeFeed)}
	p, metrics := newTestPipeline(src, nil)

	doc, err := p.Run(context.Background(), pipeline.View{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "one fetch per pass")

	require.Len(t, doc.Markers, 1)
	m := doc.Markers[0]
	assert.Equal(t, "yellow", m.Style.FillColor)
	assert.InDelta(t, 24.4, m.Style.Radius, 1e-9)
	assert.Contains(t, m.Popup, "Location: X")
	assert.Contains(t, m.Popup, "Magnitude: 6.1")
	assert.Contains(t, m.Popup, "Depth: 45.2")

	assert.NotEmpty(t, doc.RenderID)
	assert.Equal(t, "map", doc.MountID)
	assert.Equal(t, domain.StreetLayer.Name, doc.SelectedBase)
	assert.Equal(t, "USGS All Earthquakes, Past Week", doc.Feed.Title)
	assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), doc.GeneratedAt)
	assert.Len(t, doc.Legend.Entries, domain.BucketCount)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RenderPasses.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeaturesParsed), 0)
}

func TestPipeline_Run_EmptyFeed(t *testing.T) {
	src := &mockSource{body: []byte(`{"type":"FeatureCollection","features":[]}`)}
	p, _ := newTestPipeline(src, nil)

	doc, err := p.Run(context.Background(), pipeline.View{})
	require.NoError(t, err)
	assert.Empty(t, doc.Markers)
	assert.Len(t, doc.BaseLayers, 2)
	assert.Len(t, doc.Legend.Entries, domain.BucketCount)
}

func TestPipeline_Run_FetchError(t *testing.T) {
	src := &mockSource{err: errors.New("feed error: status 503")}
	p, metrics := newTestPipeline(src, nil)

	_, err := p.Run(context.Background(), pipeline.View{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 1, src.calls, "no retry")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RenderPasses.WithLabelValues("fetch_error")), 0)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ParseError(t *testing.T) {
	src := &mockSource{body: []byte(`<html>`)}
	p, metrics := newTestPipeline(src, nil)

	_, err := p.Run(context.Background(), pipeline.View{})
	require.Error(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RenderPasses.WithLabelValues("parse_error")), 0)
}

func TestPipeline_Run_ViewOverrides(t *testing.T) {
	src := &mockSource{body: []byte(oneQuakeFeed)}
	p, _ := newTestPipeline(src, nil)

	doc, err := p.Run(context.Background(), pipeline.View{
		Lat:  ptr(10.5),
		Lon:  ptr(-20.25),
		Zoom: ptr(3),
		Base: "topography",
	})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-20.25, 10.5}, doc.Center)
	assert.Equal(t, 3, doc.Zoom)
	assert.Equal(t, domain.TopoLayer.Name, doc.SelectedBase)
}

func TestPipeline_Run_InvalidView(t *testing.T) {
	tests := []struct {
		name string
		view pipeline.View
	}{
		{"lat too high", pipeline.View{Lat: ptr(91.0)}},
		{"lon too low", pipeline.View{Lon: ptr(-181.0)}},
		{"lat NaN", pipeline.View{Lat: ptr(math.NaN())}},
		{"lon NaN", pipeline.View{Lon: ptr(math.NaN())}},
		{"lat infinite", pipeline.View{Lat: ptr(math.Inf(1))}},
		{"lon negative infinite", pipeline.View{Lon: ptr(math.Inf(-1))}},
		{"negative zoom", pipeline.View{Zoom: ptr(-1)}},
		{"zoom too high", pipeline.View{Zoom: ptr(20)}},
		{"unknown base", pipeline.View{Base: "satellite"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{body: []byte(oneQuakeFeed)}
			p, metrics := newTestPipeline(src, nil)

			_, err := p.Run(context.Background(), tt.view)
			require.ErrorIs(t, err, pipeline.ErrInvalidView)
			assert.Zero(t, src.calls, "invalid views never reach the feed")
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.RenderPasses.WithLabelValues("invalid_view")), 0)
			assert.InDelta(t, 0, testutil.ToFloat64(metrics.RenderPasses.WithLabelValues("success")), 0)
			assert.Error(t, p.CheckReadiness(context.Background()), "a rejected view never marks the service ready")
		})
	}
}

func TestPipeline_Run_Publishes(t *testing.T) {
	pub := &mockPublisher{}
	p, metrics := newTestPipeline(&mockSource{body: []byte(oneQuakeFeed)}, pub)

	doc, err := p.Run(context.Background(), pipeline.View{})
	require.NoError(t, err)
	require.Len(t, pub.docs, 1)
	assert.Equal(t, doc.RenderID, pub.docs[0].RenderID)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MarkersPublished), 0)
}

func TestPipeline_Run_PublishErrorDoesNotFailPass(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	p, metrics := newTestPipeline(&mockSource{body: []byte(oneQuakeFeed)}, pub)

	doc, err := p.Run(context.Background(), pipeline.View{})
	require.NoError(t, err)
	assert.Len(t, doc.Markers, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.MarkersPublished), 0)
}

func TestPipeline_Run_RepeatedPassesIndependent(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{body: []byte(oneQuakeFeed)}, nil)

	first, err := p.Run(context.Background(), pipeline.View{})
	require.NoError(t, err)
	second, err := p.Run(context.Background(), pipeline.View{})
	require.NoError(t, err)

	assert.NotEqual(t, first.RenderID, second.RenderID)
	assert.Equal(t, first.Markers, second.Markers)
}

func TestPipeline_CheckReadiness(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{body: []byte(oneQuakeFeed)}, nil)

	require.Error(t, p.CheckReadiness(context.Background()))

	_, err := p.Run(context.Background(), pipeline.View{})
	require.NoError(t, err)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Legend(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{}, nil)

	legend := p.Legend()
	assert.Equal(t, "bottomright", legend.Position)
	assert.Equal(t, domain.LegendTitle, legend.Title)
	require.Len(t, legend.Entries, domain.BucketCount)
	assert.Equal(t, "90+", legend.Entries[domain.BucketCount-1].Label)
}
