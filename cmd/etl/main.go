package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/border-crossing-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/border-crossing-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/border-crossing-etl/internal/adapter/kafka"
	"github.com/couchcryptid/border-crossing-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/border-crossing-etl/internal/config"
	"github.com/couchcryptid/border-crossing-etl/internal/domain"
	"github.com/couchcryptid/border-crossing-etl/internal/observability"
	"github.com/couchcryptid/border-crossing-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	opts := []pipeline.Option{pipeline.WithOutput(os.Stdout)}

	// Optional record fan-out (enabled via KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(
		csvfile.NewLoader(cfg.SourcePath, logger),
		pipeline.NewTransformer(cfg.SkipInvalidRows, logger, metrics),
		sqlite.NewStore(cfg.StorePath, cfg.StoreTable, logger),
		jsonfile.NewExporter(cfg.ExportPath, logger),
		logger,
		metrics,
		opts...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	_, runErr := p.Run(ctx)
	stop()

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, cfg.MetricsJob); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}

	if runErr != nil {
		stage := "unknown"
		var stageErr *domain.StageError
		if errors.As(runErr, &stageErr) {
			stage = stageErr.Stage
		}
		logger.Error("pipeline failed", "stage", stage, "error", runErr)
		os.Exit(1)
	}
}
