// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stockpulse/doi-backend/internal/api/handlers"
	"github.com/stockpulse/doi-backend/internal/api/middleware"
	"github.com/stockpulse/doi-backend/internal/service"
)

type Services struct {
	ReportService *service.ReportService
	// DefaultLookbackDays seeds the `days` parameter when a request omits it.
	DefaultLookbackDays int
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil && services.ReportService != nil {
		reportHandler := handlers.NewReportHandler(services.ReportService, services.DefaultLookbackDays)
		batches := apiGroup.Group("/batches")
		{
			batches.POST("", reportHandler.UploadBatch)
			batches.PUT("/:id", reportHandler.ReplaceBatch)
			batches.GET("/:id/doi", reportHandler.GetDOIView)
			batches.GET("/:id/po-status", reportHandler.GetPOStatus)
			batches.GET("/:id/filters", reportHandler.GetFilters)
			batches.GET("/:id/snapshots/doi", reportHandler.GetDOISnapshot)
			batches.GET("/:id/snapshots/po-status", reportHandler.GetPOStatusSnapshot)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
