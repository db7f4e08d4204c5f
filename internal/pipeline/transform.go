package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// QuakeTransformer implements Transformer using the domain parse and style functions.
type QuakeTransformer struct {
	styler domain.Styler
	logger *slog.Logger
}

// NewTransformer creates a QuakeTransformer that styles markers with s.
func NewTransformer(s domain.Styler, logger *slog.Logger) *QuakeTransformer {
	return &QuakeTransformer{
		styler: s,
		logger: logger,
	}
}

// Transform parses a feed body and styles one marker per feature, in feed order.
func (t *QuakeTransformer) Transform(_ context.Context, body []byte) (Transformed, error) {
	fc, err := domain.ParseFeatureCollection(body)
	if err != nil {
		return Transformed{}, err
	}

	markers := domain.BuildMarkers(fc.Features, t.styler)
	t.logger.Debug("features styled", "features", len(fc.Features), "feed", fc.Metadata.Title)

	return Transformed{Metadata: fc.Metadata, Markers: markers}, nil
}
