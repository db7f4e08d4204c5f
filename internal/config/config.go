package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// DefaultFeedURL is the USGS summary feed of every earthquake in the past week.
const DefaultFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL         string
	FeedTimeout     time.Duration // 0 means no client timeout
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Map composition.
	MapElementID   string
	MapCenterLat   float64
	MapCenterLon   float64
	MapZoom        int
	MapBaseLayer   string
	LegendPosition string

	// Marker styling.
	MarkerRadiusUnit    domain.RadiusUnit
	MarkerScale         float64
	MarkerLegacyPalette bool

	// Redis feed cache; disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FeedCacheTTL  time.Duration

	// Kafka marker publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers     []string
	KafkaMarkerTopic string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parseDuration("FEED_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("FEED_CACHE_TTL", "60s")
	if err != nil {
		return nil, err
	}
	if cacheTTL == 0 {
		return nil, errors.New("invalid FEED_CACHE_TTL: must be positive")
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", 37.09)
	if err != nil {
		return nil, err
	}
	centerLon, err := parseFloat("MAP_CENTER_LON", -95.71)
	if err != nil {
		return nil, err
	}
	zoom, err := parseInt("MAP_ZOOM", 5)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	unit, err := domain.ParseRadiusUnit(sharedcfg.EnvOrDefault("MARKER_RADIUS_UNIT", string(domain.RadiusPixels)))
	if err != nil {
		return nil, fmt.Errorf("invalid MARKER_RADIUS_UNIT: %w", err)
	}
	scale, err := parseFloat("MARKER_SCALE", unit.DefaultScale())
	if err != nil {
		return nil, err
	}

	legendPosition, err := domain.ParseLegendPosition(sharedcfg.EnvOrDefault("LEGEND_POSITION", "bottomright"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEGEND_POSITION: %w", err)
	}

	baseLayer, ok := domain.BaseLayerByName(sharedcfg.EnvOrDefault("MAP_BASE_LAYER", domain.StreetLayer.Name))
	if !ok {
		return nil, errors.New("invalid MAP_BASE_LAYER: want Street or Topography")
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		FeedURL:         sharedcfg.EnvOrDefault("FEED_URL", DefaultFeedURL),
		FeedTimeout:     feedTimeout,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapElementID:   sharedcfg.EnvOrDefault("MAP_ELEMENT_ID", "map"),
		MapCenterLat:   centerLat,
		MapCenterLon:   centerLon,
		MapZoom:        zoom,
		MapBaseLayer:   baseLayer.Name,
		LegendPosition: legendPosition,

		MarkerRadiusUnit:    unit,
		MarkerScale:         scale,
		MarkerLegacyPalette: os.Getenv("MARKER_LEGACY_PALETTE") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		FeedCacheTTL:  cacheTTL,

		KafkaBrokers:     brokers,
		KafkaMarkerTopic: sharedcfg.EnvOrDefault("KAFKA_MARKER_TOPIC", "earthquake-markers"),
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.MapElementID == "" {
		return nil, errors.New("MAP_ELEMENT_ID is required")
	}
	if !inRange(cfg.MapCenterLat, -90, 90) {
		return nil, errors.New("invalid MAP_CENTER_LAT: must be within [-90, 90]")
	}
	if !inRange(cfg.MapCenterLon, -180, 180) {
		return nil, errors.New("invalid MAP_CENTER_LON: must be within [-180, 180]")
	}
	if cfg.MapZoom < 0 || cfg.MapZoom > 19 {
		return nil, errors.New("invalid MAP_ZOOM: must be within [0, 19]")
	}
	if cfg.MarkerScale <= 0 {
		return nil, errors.New("invalid MARKER_SCALE: must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaMarkerTopic == "" {
		return nil, errors.New("KAFKA_MARKER_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// Palette returns the marker palette selected by MARKER_LEGACY_PALETTE.
func (c *Config) Palette() domain.Palette {
	if c.MarkerLegacyPalette {
		return domain.LegacyPalette
	}
	return domain.DefaultPalette
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// inRange reports whether x is finite and within [lo, hi].
func inRange(x, lo, hi float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	return x >= lo && x <= hi
}
