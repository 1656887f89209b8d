package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gocatalog/internal/constants"
	"github.com/amaumene/gocatalog/internal/middleware"
	"github.com/amaumene/gocatalog/pkg/logger"
)

func main() {
	// Initialize configuration and logger
	InitializeConfig()

	// Initialize database
	InitializeDatabase()
	defer func() {
		if err := DB.Close(); err != nil {
			Logger.Errorf("[App] failed to close database: %v", err)
		}
	}()

	// Initialize services
	InitializeServices()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start cache cleanup routine
	documentCache.StartCleanup(ctx, constants.CacheSweepInterval)

	if logger.ParseLevel(Config.LogLevel) != logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Gzip())

	// Routes
	handler.RegisterRoutes(r, middleware.BearerAuth(Config.APIToken, Logger))

	srv := &http.Server{
		Addr:              ":" + Config.Port,
		Handler:           r,
		ReadHeaderTimeout: constants.RequestTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		Logger.Infof("[App] starting HTTP server on port %s", Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			Logger.Errorf("[App] HTTP server failed: %v", err)
			return
		}
	case <-ctx.Done():
		Logger.Infof("[App] shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Errorf("[App] graceful shutdown failed: %v", err)
	}
}
