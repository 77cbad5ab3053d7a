// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockpulse/doi-backend/internal/api"
	"github.com/stockpulse/doi-backend/internal/cache"
	"github.com/stockpulse/doi-backend/internal/config"
	"github.com/stockpulse/doi-backend/internal/repository/postgres"
	"github.com/stockpulse/doi-backend/internal/service"
	"github.com/stockpulse/doi-backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
		logger.SetLevel("debug")
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger.SetLevel("info")
	}

	// Snapshot persistence is optional: run without a database when none is
	// reachable.
	var repo *postgres.ReportRepository
	if db, err := postgres.NewDB(&cfg.Database); err != nil {
		logger.Log.Warn().Err(err).Msg("database unavailable, snapshots disabled")
	} else {
		defer db.Close()
		repo = postgres.NewReportRepository(db)
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, falling back to no-op")
		reportCache = cache.NewNoopReportCache()
	}

	reportService := service.NewReportService(cfg, reportCache, repo)

	router := api.NewRouter(&api.Services{
		ReportService:       reportService,
		DefaultLookbackDays: cfg.App.DefaultLookbackDays,
	}, cfg.Server.AllowedOrigins)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
