package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/amqp"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/config"
	apphttp "github.com/RDL-Tech-Solutions/jurus-sub003/internal/http"
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

	srv := apphttp.NewServer(":"+cfg.Port, sqliteRepo, cfg)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The recurring worker effectuates rules in its own process; consume its
	// events so cached forecasts never serve stale balances.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, forecasts refresh on cache TTL only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			go func() {
				err := amqpClient.ConsumeTransactionEvents(ctx, func(event *amqp.TransactionEvent) error {
					logger.Info("Effectuation event received",
						"transaction_id", event.TransactionID,
						"rule_id", event.RuleID,
						"year", event.Year,
						"month", event.Month)
					srv.InvalidateForecasts()
					return nil
				})
				if err != nil && ctx.Err() == nil {
					logger.Error("AMQP consumer stopped", "error", err)
				}
			}()
			logger.Info("AMQP consumer started", "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, forecasts refresh on cache TTL only")
	}

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting jurus server", "port", cfg.Port, "sqlite_db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
