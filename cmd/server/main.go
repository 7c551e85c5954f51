// Command server runs the earthquake globe data service: it serves the
// historic point binary and stats artifacts, the recent 7-day window, and
// the administrative refresh action that merges live feed data into the
// historical catalog.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/quake-globe-data/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-globe-data/internal/adapter/kafka"
	"github.com/couchcryptid/quake-globe-data/internal/adapter/usgs"
	"github.com/couchcryptid/quake-globe-data/internal/cache"
	"github.com/couchcryptid/quake-globe-data/internal/config"
	"github.com/couchcryptid/quake-globe-data/internal/merge"
	"github.com/couchcryptid/quake-globe-data/internal/observability"
	"github.com/couchcryptid/quake-globe-data/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	artifacts := store.New(cfg.DataDir, logger)

	// A crash between persisting the binary and the stats leaves a stale
	// stats document; recover before serving anything.
	if _, err := artifacts.EnsureConsistentStats(); err != nil {
		// Not fatal: the service can still serve the recent window and the
		// first refresh will produce the artifacts.
		logger.Warn("historic artifacts not ready", "error", err)
	}

	dataCache := cache.New(artifacts, metrics)
	feed := usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger, metrics)

	// Kafka publishing is feature-flagged via KAFKA_ENABLED.
	var publisher merge.AddedPublisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger, metrics)
		publisher = kafkaWriter
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	refresher := merge.NewRefresher(feed, artifacts, publisher, dataCache, logger, metrics, clockwork.NewRealClock())

	ready := httpadapter.ReadinessFunc(func(_ context.Context) error {
		return artifacts.HasArtifacts()
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, dataCache, feed, refresher, cfg.RefreshRateLimit, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
