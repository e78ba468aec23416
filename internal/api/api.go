package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stocksense/internal/api/handlers"
	"github.com/andresuchdata/stocksense/internal/api/middleware"
	"github.com/andresuchdata/stocksense/internal/metrics"
	"github.com/andresuchdata/stocksense/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	ForecastService *service.ForecastService
	ReorderService  *service.ReorderService
	ExportService   *service.ExportService
	Metrics         *metrics.Metrics
}

// Options configures the router surface
type Options struct {
	AllowedOrigins []string
	// MetricsPath mounts the Prometheus handler; empty disables it.
	MetricsPath string
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if services == nil {
		return router
	}

	if services.Metrics != nil && opts.MetricsPath != "" {
		router.GET(opts.MetricsPath, gin.WrapH(services.Metrics.Handler()))
	}

	apiGroup := router.Group("/api/v1", middleware.RequireCaller())

	if services.ForecastService != nil {
		forecastHandler := handlers.NewForecastHandler(services.ForecastService)
		forecastGroup := apiGroup.Group("/forecasts")
		{
			forecastGroup.POST("/generate", forecastHandler.Generate)
			forecastGroup.GET("", forecastHandler.List)
		}
	}

	if services.ReorderService != nil {
		reorderHandler := handlers.NewReorderHandler(services.ReorderService, services.ExportService)
		reorderGroup := apiGroup.Group("/reorder-suggestions")
		{
			reorderGroup.POST("/generate", reorderHandler.Generate)
			reorderGroup.GET("", reorderHandler.List)
			reorderGroup.PATCH("/:id/status", reorderHandler.UpdateStatus)
			reorderGroup.POST("/export", reorderHandler.Export)
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
