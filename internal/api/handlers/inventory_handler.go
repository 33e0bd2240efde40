package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/service"
	"github.com/tranvda/mfg-backend/internal/stockledger"
)

type InventoryHandler struct {
	service *service.AnalyticsService
}

func NewInventoryHandler(service *service.AnalyticsService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// GetMaterials returns every material with commitment-derived fields.
func (h *InventoryHandler) GetMaterials(c *gin.Context) {
	materials, err := h.service.GetEnhancedMaterials(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load materials")
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials, "count": len(materials)})
}

type availabilityRequest struct {
	Requirements []stockledger.Requirement `json:"requirements" binding:"required"`
}

// CheckAvailability reports whether the requested quantities are
// currently satisfiable, without reserving anything.
func (h *InventoryHandler) CheckAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid availability request")
		return
	}

	result, err := h.service.CheckAvailability(c.Request.Context(), req.Requirements)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to check availability")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetForecasts returns inventory forecasts, filtered via query params.
func (h *InventoryHandler) GetForecasts(c *gin.Context) {
	forecasts, err := h.service.GetForecasts(c.Request.Context(), parseForecastFilter(c))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build forecasts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecasts": forecasts, "count": len(forecasts)})
}

// GetAlerts returns only the critical forecasts.
func (h *InventoryHandler) GetAlerts(c *gin.Context) {
	filter := parseForecastFilter(c)
	filter.OnlyCritical = true

	forecasts, err := h.service.GetForecasts(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build alerts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": forecasts, "count": len(forecasts)})
}

func parseForecastFilter(c *gin.Context) domain.ForecastFilter {
	filter := domain.ForecastFilter{Page: 1, PageSize: 50}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}
	if minRisk, err := strconv.ParseFloat(c.Query("min_risk"), 64); err == nil && minRisk > 0 {
		filter.MinRisk = minRisk
	}
	if c.Query("only_critical") == "true" {
		filter.OnlyCritical = true
	}

	// Both ?material_id=1&material_id=2 and ?material_id=1,2 are accepted.
	for _, raw := range c.QueryArray("material_id") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				filter.MaterialIDs = append(filter.MaterialIDs, id)
			}
		}
	}

	return filter
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
