package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes styled markers to a Kafka topic.
// It implements pipeline.MarkerPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured marker topic.
// Messages are partitioned by feature id so a compacted topic keeps the
// latest style per earthquake.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaMarkerTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishMarkers writes every marker of a composed document in a single
// WriteMessages call.
func (w *Writer) PublishMarkers(ctx context.Context, doc domain.MapDocument) error {
	if len(doc.Markers) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(doc.Markers))
	for i := range doc.Markers {
		msg, err := serializeToMessage(doc.Markers[i], doc.RenderID, doc.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish markers: %w", err)
	}
	w.logger.Debug("markers published", "render_id", doc.RenderID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// markerMessage is the JSON value of one marker message.
type markerMessage struct {
	ID    string             `json:"id"`
	Place string             `json:"place"`
	Mag   float64            `json:"mag"`
	Depth float64            `json:"depth"`
	Lat   float64            `json:"lat"`
	Lon   float64            `json:"lon"`
	Time  *time.Time         `json:"time,omitempty"`
	Style domain.MarkerStyle `json:"style"`
	Popup string             `json:"popup"`
}

// serializeToMessage marshals a marker into a Kafka message.
func serializeToMessage(m domain.Marker, renderID string, renderedAt time.Time) (kafkago.Message, error) {
	value := markerMessage{
		ID:    m.Feature.ID,
		Place: m.Feature.Place,
		Mag:   m.Feature.Mag,
		Depth: m.Feature.Depth,
		Lat:   m.Feature.Point.Lat(),
		Lon:   m.Feature.Point.Lon(),
		Style: m.Style,
		Popup: m.Popup,
	}
	if !m.Feature.Time.IsZero() {
		ts := m.Feature.Time
		value.Time = &ts
	}

	data, err := json.Marshal(value)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker %s: %w", m.Feature.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(m.Feature.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "fill_color", Value: []byte(m.Style.FillColor)},
			{Key: "render_id", Value: []byte(renderID)},
			{Key: "rendered_at", Value: []byte(renderedAt.Format(time.RFC3339))},
		},
	}, nil
}
