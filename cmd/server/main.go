package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/mindforge/internal/api"
	"github.com/vytor/mindforge/internal/config"
	"github.com/vytor/mindforge/internal/db"
	"github.com/vytor/mindforge/internal/jobs"
	"github.com/vytor/mindforge/internal/logger"
	"github.com/vytor/mindforge/internal/repository/sqlite"
	"github.com/vytor/mindforge/internal/services"
	"github.com/vytor/mindforge/internal/worker"
)

const (
	requestTimeout  = 15 * time.Second
	importBatchSize = 100
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("MindForge Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("import_worker_count=%d", cfg.ImportWorkers)
	log.Debug("import_queue_size=%d", cfg.ImportQueueSize)
	log.Debug("due_page_size=%d", cfg.DuePageSize)
	log.Debug("max_import_batch=%d", cfg.MaxImportBatch)
	log.Debug("shutdown_timeout=%s", cfg.ShutdownTimeout)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	flashcardService := services.NewFlashcardService(sqlite.NewFlashcardRepository(database.DB))

	importPool := worker.NewPool(cfg.ImportWorkers, cfg.ImportQueueSize)
	jobQueue := jobs.NewWorkerQueue(importPool, flashcardService, importBatchSize)

	srv := &api.Server{
		FlashcardService: flashcardService,
		JobQueue:         jobQueue,
		DB:               database,
		DuePageSize:      cfg.DuePageSize,
		MaxImportBatch:   cfg.MaxImportBatch,
		RequestTimeout:   requestTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	importPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Queued imports drain until the shutdown deadline, then get cancelled.
	log.Debug("stopping import pool")
	go func() {
		<-shutdownCtx.Done()
		cancel()
	}()
	importPool.Stop()

	log.Info("===========================================")
	log.Info("MindForge Server Stopped")
	log.Info("===========================================")
}
