package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/prerak-b/vivavoce/internal/app"
	"github.com/prerak-b/vivavoce/internal/config"
)

func main() {
	// Local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	built, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("build failed", zap.Error(err))
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			logger.Warn("cleanup failed", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: built.API.Router(),
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// End any running interview first so media and the control connection are
	// released before the listener stops.
	built.API.Shutdown(shutdownCtx)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}
