package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/aqi-forecast-etl/internal/adapter/kafka"
	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/maps"
	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/postgres"
	"github.com/couchcryptid/aqi-forecast-etl/internal/artifact"
	"github.com/couchcryptid/aqi-forecast-etl/internal/config"
	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	"github.com/couchcryptid/aqi-forecast-etl/internal/observability"
	"github.com/couchcryptid/aqi-forecast-etl/internal/pipeline"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("etl failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, err := domain.LoadBreakpointsFile(cfg.BreakpointsFile)
	if err != nil {
		return err
	}
	renderer, err := maps.NewRenderer(table)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	reads := artifact.NewCachedStore(store, cfg.ArtifactCacheSize)

	runID := uuid.NewString()
	stages := pipeline.Stages{
		Source:     csvfile.NewFileSource(resolve(cfg.DataDir, cfg.RawDataPath)),
		Calculator: domain.NewCalculator(table),
		Renderer:   renderer,
	}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewForecastWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		stages.Publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaForecastTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	if cfg.DatabaseURL != "" {
		wh, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := wh.Close(); err != nil {
				logger.Error("postgres close error", "error", err)
			}
		}()
		stages.Sink = wh
		logger.Info("postgres warehouse enabled")
	}

	p := pipeline.New(artifact.NewCache(reads, logger, metrics), stages, pipeline.Options{
		RunID:         runID,
		Pollutants:    cfg.Pollutants,
		ForecastYears: cfg.ForecastYears,
		MapWorkers:    cfg.MapWorkers,
	}, logger, metrics)

	var srv *httpadapter.Server
	if cfg.Serve {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.API{
			Lookup:      pipeline.NewQuery(reads),
			Timeline:    p,
			Maps:        reads,
			Breakpoints: table,
		}, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)
	var scopeErr *pipeline.RunError
	switch {
	case errors.As(runErr, &scopeErr):
		logger.Warn("run finished with failed scopes", "failed", len(scopeErr.Failures))
	case runErr != nil:
		return runErr
	}

	if srv == nil {
		return runErr
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// openStore builds the artifact backend named by ARTIFACT_BACKEND.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (artifact.Store, func(), error) {
	if cfg.ArtifactBackend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("artifact store", "backend", "redis", "addr", cfg.RedisAddr)
		return artifact.NewRedisStore(client, "aqi:"), func() { _ = client.Close() }, nil
	}
	logger.Info("artifact store", "backend", "file", "dir", cfg.DataDir)
	return artifact.NewFileStore(cfg.DataDir), func() {}, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
