package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

// Default reference point: TU Delft campus, where the gateway survey was run.
const (
	DefaultRefLat = 51.998
	DefaultRefLng = 4.374
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

	// Uplink store. Webhook ingestion is disabled when empty.
	DatabaseURL string

	// Estimation settings.
	EstimateMode domain.Mode
	Weights      domain.WeightModel
	Reference    domain.Point

	// Mapbox reverse geocoding configuration.
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

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
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

	mode, err := domain.ParseMode(os.Getenv("ESTIMATE_MODE"))
	if err != nil {
		return nil, fmt.Errorf("invalid ESTIMATE_MODE: %w", err)
	}

	weights, err := parseWeightModel()
	if err != nil {
		return nil, err
	}

	reference, err := parseReference()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "ttn-uplinks"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "device-positions"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "lora-locator"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DatabaseURL: os.Getenv("DATABASE_URL"),

		EstimateMode: mode,
		Weights:      weights,
		Reference:    reference,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseWeightModel() (domain.WeightModel, error) {
	scale, err := parseFloatEnv("WEIGHT_RSSI_SCALE", domain.DefaultRSSIScale)
	if err != nil {
		return domain.WeightModel{}, err
	}
	offset, err := parseFloatEnv("WEIGHT_SNR_OFFSET", domain.DefaultSNROffset)
	if err != nil {
		return domain.WeightModel{}, err
	}

	m := domain.WeightModel{RSSIScale: scale, SNROffset: offset}
	if err := m.Validate(); err != nil {
		return domain.WeightModel{}, fmt.Errorf("invalid WEIGHT_RSSI_SCALE/WEIGHT_SNR_OFFSET: %w", err)
	}
	return m, nil
}

func parseReference() (domain.Point, error) {
	lat, err := parseFloatEnv("REF_LAT", DefaultRefLat)
	if err != nil {
		return domain.Point{}, err
	}
	lng, err := parseFloatEnv("REF_LNG", DefaultRefLng)
	if err != nil {
		return domain.Point{}, err
	}

	p := domain.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return domain.Point{}, fmt.Errorf("invalid REF_LAT/REF_LNG: %w", err)
	}
	return p, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
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
