package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/api"
	"github.com/yakuphankucukkesim/resonora-ai/internal/api/handlers"
	"github.com/yakuphankucukkesim/resonora-ai/internal/billing"
	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
	"github.com/yakuphankucukkesim/resonora-ai/internal/migrations"
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

	ctx := context.Background()

	migrationDB, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := migrations.Run(ctx, migrationDB); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
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

	var dispatcher pipeline.Dispatcher
	if cfg.Temporal.Enabled {
		temporalClient, err := client.Dial(client.Options{
			HostPort: cfg.Temporal.HostPort,
		})
		if err != nil {
			logger.Fatal("Failed to create Temporal client", zap.Error(err))
		}
		defer temporalClient.Close()
		dispatcher = pipeline.NewTemporalDispatcher(temporalClient, cfg.Temporal.TaskQueue, logger)
	} else {
		logger.Info("Temporal disabled, running pipeline in-process")
		dispatcher = pipeline.NewInlineDispatcher(orchestrator, cfg.Pipeline.Retry, logger)
	}

	billingService := billing.NewService(cfg.Billing, store, logger)

	uploadsHandler := handlers.NewUploadsHandler(
		store,
		storageImpl,
		time.Duration(cfg.Pipeline.UploadURLTTLSec)*time.Second,
		time.Duration(cfg.Pipeline.ClipURLTTLSec)*time.Second,
		logger,
	)
	eventsHandler := handlers.NewEventsHandler(dispatcher, logger)
	billingHandler := handlers.NewBillingHandler(billingService, logger)

	server := api.NewServer(uploadsHandler, eventsHandler, billingHandler, cfg, logger)

	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}
