package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tabungan/internal/amqp"
	"tabungan/internal/config"
	applog "tabungan/internal/log"
	"tabungan/internal/services"
	"tabungan/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentEngine,
	})
	applog.SetDefault(logger)

	logger.Info("Starting savings-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var events services.GoalEventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, auto-contributions will not be exported", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
		}
	} else {
		logger.Info("AMQP disabled - auto-contributions will not be exported")
	}

	engine := services.NewAutoContributionEngine(repo, events, cfg.EngineConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Auto-contribution engine configured",
		"interval", cfg.EngineInterval,
		"concurrency", cfg.EngineConcurrency,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.EngineInterval)
	defer ticker.Stop()

	runTick := func(now time.Time) {
		result, err := engine.Tick(ctx, now)
		switch {
		case errors.Is(err, services.ErrTickInProgress):
			logger.Warn("Previous tick still running, skipped")
		case err != nil:
			logger.Error("Tick failed", "error", err)
		default:
			logger.Info("Tick complete",
				"candidates", result.Candidates,
				"applied", result.Applied,
				"completed", result.Completed,
				"failed", result.Failed)
		}
	}

	logger.Info("Running initial auto-contribution tick...")
	runTick(time.Now())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				runTick(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("savings-worker stopped gracefully")
}
