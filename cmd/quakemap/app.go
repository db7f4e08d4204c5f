package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/paulmach/orb"

	kafkaadapter "github.com/couchcryptid/quake-map-service/internal/adapter/kafka"
	redisadapter "github.com/couchcryptid/quake-map-service/internal/adapter/redis"
	"github.com/couchcryptid/quake-map-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/couchcryptid/quake-map-service/internal/pipeline"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	closers  []io.Closer
}

// newApp loads configuration and wires the render pipeline. The logger writes
// to stdout; when stdout carries rendered output, quiet limits it to errors.
func newApp(ctx context.Context, quiet bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if quiet {
		cfg.LogLevel = "error"
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	a := &app{cfg: cfg, logger: logger}

	var source domain.FeedSource = usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout, metrics, logger)

	// Feed cache (enabled via REDIS_ADDR).
	if cfg.RedisAddr != "" {
		rdb := redisadapter.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cache := redisadapter.NewFeedCache(source, rdb, cfg.FeedURL, cfg.FeedCacheTTL, metrics, logger)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, cache will fall through", "addr", cfg.RedisAddr, "error", err)
		}
		source = cache
		a.closers = append(a.closers, rdb)
		logger.Info("feed cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.FeedCacheTTL)
	} else {
		logger.Info("feed cache disabled")
	}

	// Marker publishing (enabled via KAFKA_BROKERS).
	var publisher pipeline.MarkerPublisher
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		a.closers = append(a.closers, writer)
		logger.Info("marker publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaMarkerTopic)
	}

	palette := cfg.Palette()
	styler := domain.NewStyler(cfg.MarkerRadiusUnit, cfg.MarkerScale, palette)
	transformer := pipeline.NewTransformer(styler, logger)

	defaults := pipeline.Defaults{
		MountID:        cfg.MapElementID,
		Center:         orb.Point{cfg.MapCenterLon, cfg.MapCenterLat},
		Zoom:           cfg.MapZoom,
		BaseLayer:      cfg.MapBaseLayer,
		LegendPosition: cfg.LegendPosition,
		RadiusUnit:     cfg.MarkerRadiusUnit,
		Palette:        palette,
	}

	a.pipeline = pipeline.New(source, transformer, publisher, defaults, logger, metrics)
	return a, nil
}

// Close releases the optional Redis and Kafka clients.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}
