package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
	"github.com/yakuphankucukkesim/resonora-ai/internal/pipeline"
	"github.com/yakuphankucukkesim/resonora-ai/internal/pipeline/storage"
	"github.com/yakuphankucukkesim/resonora-ai/internal/transcoder"
	"github.com/yakuphankucukkesim/resonora-ai/internal/upload"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	configLoader := config.NewConfigLoader(logger)
	cfg, err := configLoader.Load("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	store := upload.NewStore(pool)

	storageImpl, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to init storage", zap.Error(err))
	}

	invoker := transcoder.NewClient(cfg.Transcoder, logger)
	orchestrator := pipeline.NewOrchestrator(store, storageImpl, invoker, logger)

	temporalClient, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	defer temporalClient.Close()

	worker := pipeline.NewTemporalWorker(temporalClient, orchestrator, cfg.Temporal.TaskQueue, logger)
	if err := worker.Start(); err != nil {
		logger.Fatal("Failed to start Temporal worker", zap.Error(err))
	}
	defer worker.Stop()

	logger.Info("Temporal worker started", zap.String("task_queue", cfg.Temporal.TaskQueue))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
}
