package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/wuxia-session/internal/app"
	"github.com/jwebster45206/wuxia-session/internal/config"
	"github.com/jwebster45206/wuxia-session/internal/handlers"
	"github.com/jwebster45206/wuxia-session/internal/logger"
	"github.com/jwebster45206/wuxia-session/internal/middleware"
	"github.com/jwebster45206/wuxia-session/pkg/offline"
	"github.com/jwebster45206/wuxia-session/pkg/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Wuxia preview API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"preview_store", cfg.PreviewStore,
		"auth", cfg.AuthToken != "")

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	store, err := app.OpenStore(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open preview store", "error", err)
		os.Exit(1)
	}
	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// The API always serves the simulator; SOURCE only matters to clients.
	sim := offline.NewSimulator(store, log)
	mux := handlers.NewRouter(sim, store, log)

	handler := middleware.Chain(mux,
		middleware.Recover(log),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.BearerAuth(cfg.AuthToken, source.PathHealth))
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
