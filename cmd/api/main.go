package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/adlytics/experiment-service/internal/assignment"
	"github.com/adlytics/experiment-service/internal/config"
	"github.com/adlytics/experiment-service/internal/experiments"
	"github.com/adlytics/experiment-service/internal/handler"
	"github.com/adlytics/experiment-service/internal/logger"
	"github.com/adlytics/experiment-service/internal/queue"
	"github.com/adlytics/experiment-service/internal/queue/direct"
	"github.com/adlytics/experiment-service/internal/queue/sqs"
	"github.com/adlytics/experiment-service/internal/repository/clickhouse"
	"github.com/adlytics/experiment-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Load experiment definitions
	registry, err := experiments.Load(cfg.Experiments.ConfigPath)
	if err != nil {
		log.Fatal("Failed to load experiment definitions", zap.Error(err))
	}
	log.Info("Experiment definitions loaded",
		zap.String("path", cfg.Experiments.ConfigPath),
		zap.Int("count", registry.Len()))

	// Initialize ClickHouse client
	clickhouseClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func(clickhouseClient *clickhouse.Client) {
		if err := clickhouseClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}(clickhouseClient)

	repo := clickhouse.NewRepository(clickhouseClient, log)

	// With a queue configured, the consumer binary owns the write path.
	// Without one, records are appended straight to the repository.
	var publisher queue.RecordPublisher
	if cfg.SQS.QueueURL != "" {
		publisher, err = sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
	} else {
		log.Info("No SQS queue configured, writing records directly")
		if err := repo.InitSchema(ctx); err != nil {
			log.Fatal("Failed to initialize schema", zap.Error(err))
		}
		publisher = direct.NewPublisher(repo, log)
	}

	engine := assignment.NewEngine(registry)
	experimentService := service.NewExperimentService(registry, publisher, repo, log)

	h := handler.NewHandler(experimentService, engine, handler.Config{
		PricingTestID: cfg.Experiments.PricingTestID,
		ResultsAPIKey: cfg.Results.APIKey,
	}, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
