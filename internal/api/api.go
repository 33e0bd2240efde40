package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tranvda/mfg-backend/internal/api/handlers"
	"github.com/tranvda/mfg-backend/internal/api/middleware"
	"github.com/tranvda/mfg-backend/internal/service"
)

type Services struct {
	Analytics *service.AnalyticsService
	Reports   *service.ReportService
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

	if services != nil && services.Analytics != nil {
		inventoryHandler := handlers.NewInventoryHandler(services.Analytics)
		inventoryGroup := apiGroup.Group("/inventory")
		{
			inventoryGroup.GET("/materials", inventoryHandler.GetMaterials)
			inventoryGroup.POST("/availability", inventoryHandler.CheckAvailability)
			inventoryGroup.GET("/forecast", inventoryHandler.GetForecasts)
			inventoryGroup.GET("/alerts", inventoryHandler.GetAlerts)
		}

		orderHandler := handlers.NewOrderHandler(services.Analytics)
		orderGroup := apiGroup.Group("/orders")
		{
			orderGroup.POST("/:id/reserve", orderHandler.Reserve)
			orderGroup.POST("/:id/cancel", orderHandler.Cancel)
			orderGroup.POST("/:id/complete", orderHandler.Complete)
			orderGroup.GET("/:id/cost_prediction", orderHandler.PredictCost)
		}

		dashboardHandler := handlers.NewDashboardHandler(services.Analytics, services.Reports)
		analyticsGroup := apiGroup.Group("/analytics")
		{
			analyticsGroup.GET("/dashboard", dashboardHandler.GetDashboard)
			analyticsGroup.POST("/reports/forecast", dashboardHandler.ExportForecastReport)
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
