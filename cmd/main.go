package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/darwkzm/sopo/config"
	"github.com/darwkzm/sopo/handlers"
	"github.com/darwkzm/sopo/live"
	api "github.com/darwkzm/sopo/routes"
	"github.com/darwkzm/sopo/services"
	"github.com/darwkzm/sopo/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("backend", cfg.StorageBackend))

	store, err := buildStore(cfg)
	if err != nil {
		logger.Error("failed to initialize document store", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("document store initialized", slog.String("key", cfg.DocumentKey))

	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("live update hub started")

	rosterService := services.NewRosterService(store, cfg.DocumentKey, clockwork.NewRealClock(), logger)

	dataHandler := handlers.NewDataHandler(rosterService, wsHub)
	staffHandler := handlers.NewStaffHandler(cfg.StaffUsername, cfg.StaffPassword, cfg.JWTSecretKey)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, dataHandler, staffHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

func buildStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.BackendR2:
		return storage.NewCloudflareR2Store(storage.CloudflareR2StoreConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		})
	case config.BackendPostgres:
		return storage.NewPostgresStore(cfg.DatabaseURL, 5*time.Second)
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
