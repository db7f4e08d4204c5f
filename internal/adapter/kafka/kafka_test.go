package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	renderedAt := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	quakeTime := time.Date(2024, 4, 26, 14, 2, 0, 0, time.UTC)
	marker := domain.BuildMarkers([]domain.Feature{{
		ID:    "us7000abcd",
		Place: "10km N of Testville",
		Mag:   5,
		Depth: 20,
		Point: orb.Point{-97.0, 35.0},
		Time:  quakeTime,
	}}, domain.NewStyler(domain.RadiusPixels, 0, domain.DefaultPalette))[0]

	msg, err := serializeToMessage(marker, "render-1", renderedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("us7000abcd"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "fill_color", msg.Headers[0].Key)
	assert.Equal(t, []byte("greenyellow"), msg.Headers[0].Value)
	assert.Equal(t, "render_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("render-1"), msg.Headers[1].Value)
	assert.Equal(t, "rendered_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(renderedAt.Format(time.RFC3339)), msg.Headers[2].Value)

	var value markerMessage
	require.NoError(t, json.Unmarshal(msg.Value, &value))
	assert.Equal(t, "10km N of Testville", value.Place)
	assert.InDelta(t, 35.0, value.Lat, 1e-9)
	assert.InDelta(t, -97.0, value.Lon, 1e-9)
	assert.InDelta(t, 20.0, value.Style.Radius, 1e-9)
	require.NotNil(t, value.Time)
	assert.True(t, quakeTime.Equal(*value.Time))
	assert.Contains(t, string(msg.Value), `"fillColor":"greenyellow"`)
}

func TestSerializeToMessage_OmitsZeroTime(t *testing.T) {
	marker := domain.Marker{Feature: domain.Feature{ID: "x"}}

	msg, err := serializeToMessage(marker, "r", time.Now())
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), `"time"`)
}

func TestPublishMarkers_EmptyDocumentIsNoop(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaMarkerTopic: "t"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.PublishMarkers(context.Background(), domain.MapDocument{}))
}
