package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bcnelson/qr-template-studio/internal/api"
	"github.com/bcnelson/qr-template-studio/internal/config"
	"github.com/bcnelson/qr-template-studio/internal/qrapi"
	"github.com/bcnelson/qr-template-studio/internal/seed"
	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/bcnelson/qr-template-studio/internal/storage"
	"github.com/bcnelson/qr-template-studio/internal/storage/memory"
	"github.com/bcnelson/qr-template-studio/internal/storage/sql"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	store, err := openStorage(cfg.Storage, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer store.Close()

	templates := service.NewTemplateService(store, logger.WithField("reporter", "template-service"))

	// Seed an empty store
	seedFile := seed.Default()
	if cfg.Seed.File != "" {
		if seedFile, err = seed.Load(cfg.Seed.File); err != nil {
			logger.WithError(err).Fatal("Failed to load seed file")
		}
	}
	if _, err := seed.Apply(context.Background(), templates, seedFile, logger); err != nil {
		logger.WithError(err).Fatal("Failed to seed templates")
	}

	// QR API client, with the mock as fallback when enabled
	client := qrapi.NewHTTPClient(cfg.QRAPI.BaseURL,
		qrapi.WithTimeout(cfg.QRAPI.Timeout),
		qrapi.WithRetries(cfg.QRAPI.Retries),
		qrapi.WithLogger(logger.WithField("reporter", "qr-api")),
	)
	var fallback qrapi.Client
	if cfg.QRAPI.MockFallback {
		fallback = qrapi.NewMockClient(uint64(time.Now().UnixNano()))
	}
	qr := service.NewQRService(client, fallback, templates, logger.WithField("reporter", "qr-service"))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(templates, qr, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"addr":    cfg.Server.Addr(),
		"storage": cfg.Storage.Driver,
		"qr_api":  cfg.QRAPI.BaseURL,
	}).Info("Starting QR Template Studio")

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return
	}

	logger.Info("Server stopped")
}

func openStorage(cfg config.StorageConfig, logger *logrus.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		// Create the data directory if needed
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	store, err := sql.New(cfg.Driver, cfg.DSN, logger.WithField("reporter", "storage"))
	if err != nil {
		return nil, err
	}
	return store, nil
}
