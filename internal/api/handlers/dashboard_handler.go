package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tranvda/mfg-backend/internal/service"
)

type DashboardHandler struct {
	service *service.AnalyticsService
	reports *service.ReportService
}

func NewDashboardHandler(service *service.AnalyticsService, reports *service.ReportService) *DashboardHandler {
	return &DashboardHandler{service: service, reports: reports}
}

// GetDashboard serves the aggregated dashboard summary.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	summary, err := h.service.GetDashboard(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportForecastReport archives a forecast CSV in object storage.
func (h *DashboardHandler) ExportForecastReport(c *gin.Context) {
	if h.reports == nil {
		errorResponse(c, http.StatusServiceUnavailable, "report archive not configured")
		return
	}

	key, err := h.reports.ExportForecastReport(c.Request.Context(), parseForecastFilter(c))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to export report")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}
