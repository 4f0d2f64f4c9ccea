package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/lora-locator/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/lora-locator/internal/adapter/kafka"
	"github.com/couchcryptid/lora-locator/internal/adapter/mapbox"
	"github.com/couchcryptid/lora-locator/internal/adapter/postgres"
	"github.com/couchcryptid/lora-locator/internal/config"
	"github.com/couchcryptid/lora-locator/internal/domain"
	"github.com/couchcryptid/lora-locator/internal/observability"
	"github.com/couchcryptid/lora-locator/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Webhook ingestion is enabled only when a database is configured.
	var (
		store httpadapter.UplinkStore
		pg    *postgres.Store
	)
	if cfg.DatabaseURL != "" {
		pg, err = postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to open uplink store", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("failed to migrate uplink store", "error", err)
			os.Exit(1)
		}
		store = pg
		logger.Info("webhook ingestion enabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(cfg.EstimateMode, cfg.Weights, geocoder, logger).
		WithReference(cfg.Reference)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	ready := httpadapter.AllReady{p}
	if pg != nil {
		ready = append(ready, pg)
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, store, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start estimation pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
