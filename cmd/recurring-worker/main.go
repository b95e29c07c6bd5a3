package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/amqp"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/config"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/services"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// Initialize AMQP client for publishing effectuation events.
	// The API server consumes these to invalidate cached forecasts.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized - effectuation events will be published")
		}
	} else {
		logger.Info("AMQP disabled - effectuation events will not be published")
	}

	transactionService := services.NewTransactionService(sqliteRepo, amqpClient)
	defer transactionService.Close()

	processor := services.NewRecurringProcessor(sqliteRepo, transactionService)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := cfg.EffectuationInterval
	logger.Info("Recurring rule processor configured",
		"interval", interval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run initial processing on startup
	logger.Info("Running initial recurring rule processing...")
	if count, err := processor.ProcessDueRules(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				logger.Info("Processing due recurring rules...")
				count, err := processor.ProcessDueRules(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
				} else {
					logger.Info("Periodic processing complete",
						"transactions_created", count,
						"next_check", now.Add(interval).Format("15:04:05"))
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down recurring-worker...")
	cancel()

	// Give in-flight processing a moment to finish
	time.Sleep(2 * time.Second)
	logger.Info("Recurring-worker shutdown complete")
}
