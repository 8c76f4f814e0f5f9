package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Globe geometry. An empty ElevationPath builds a smooth sphere.
	// All 24 encoded tiles stay resident: about 73 bytes per vertex, so the
	// default resolution of 600 holds roughly 630 MB.
	ElevationPath     string
	PlanetRadius      float64
	ElevationDivisor  float64
	FaceResolution    int
	SeamMidLatitude   float64
	SeamSouthLatitude float64
	SeamCorrection    bool

	// Arc pipeline.
	ArcPipelineEnabled  bool
	ArcDefaultThickness float64

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	g, err := loadGeometry()
	if err != nil {
		return nil, err
	}

	thickness, err := parsePositiveFloat("ARC_DEFAULT_THICKNESS", 1.0)
	if err != nil {
		return nil, err
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "arc-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "arc-meshes"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "globe-arc-builder"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ElevationPath:     os.Getenv("ELEVATION_PATH"),
		PlanetRadius:      g.radius,
		ElevationDivisor:  g.divisor,
		FaceResolution:    g.resolution,
		SeamMidLatitude:   g.seamMid,
		SeamSouthLatitude: g.seamSouth,
		SeamCorrection:    sharedcfg.EnvOrDefault("SEAM_CORRECTION", "true") == "true",

		ArcPipelineEnabled:  sharedcfg.EnvOrDefault("ARC_PIPELINE_ENABLED", "true") == "true",
		ArcDefaultThickness: thickness,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	if cfg.ArcPipelineEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

type geometry struct {
	radius, divisor    float64
	resolution         int
	seamMid, seamSouth float64
}

func loadGeometry() (geometry, error) {
	var g geometry
	var err error

	if g.radius, err = parsePositiveFloat("PLANET_RADIUS", 300); err != nil {
		return g, err
	}
	if g.divisor, err = parsePositiveFloat("ELEVATION_DIVISOR", 300); err != nil {
		return g, err
	}
	if g.resolution, err = parseResolution(); err != nil {
		return g, err
	}
	if g.seamMid, err = parseLatitude("SEAM_MID_LATITUDE", 89); err != nil {
		return g, err
	}
	if g.seamMid < 0 {
		return g, errors.New("invalid SEAM_MID_LATITUDE: must be in [0, 90]")
	}
	if g.seamSouth, err = parseLatitude("SEAM_SOUTH_LATITUDE", -40); err != nil {
		return g, err
	}
	return g, nil
}

func parseResolution() (int, error) {
	s := sharedcfg.EnvOrDefault("FACE_RESOLUTION", "600")
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > cubesphere.MaxResolution {
		return 0, fmt.Errorf("invalid FACE_RESOLUTION %q: must be an integer in [2, %d]", s, cubesphere.MaxResolution)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.FormatFloat(def, 'g', -1, 64))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", key, s)
	}
	return v, nil
}

func parseLatitude(key string, def float64) (float64, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.FormatFloat(def, 'g', -1, 64))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < -90 || v > 90 {
		return 0, fmt.Errorf("invalid %s %q: must be a latitude in degrees", key, s)
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
