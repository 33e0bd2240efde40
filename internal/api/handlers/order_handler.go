package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tranvda/mfg-backend/internal/domain"
	"github.com/tranvda/mfg-backend/internal/repository"
	"github.com/tranvda/mfg-backend/internal/service"
)

type OrderHandler struct {
	service *service.AnalyticsService
}

func NewOrderHandler(service *service.AnalyticsService) *OrderHandler {
	return &OrderHandler{service: service}
}

type reserveRequest struct {
	Materials []domain.CommittedMaterial `json:"materials" binding:"required"`
}

// Reserve commits stock to an order. All lines hold or none do.
func (h *OrderHandler) Reserve(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Materials) == 0 {
		errorResponse(c, http.StatusBadRequest, "invalid reservation request")
		return
	}

	if err := h.service.ReserveForOrder(c.Request.Context(), orderID, req.Materials); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) || errors.Is(err, repository.ErrOrderNotOpen) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to reserve materials")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reserved"})
}

// Cancel drops an open order's commitments, freeing the quantities for
// other orders.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	if err := h.service.CancelOrder(c.Request.Context(), orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotOpen) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to cancel order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

type completeRequest struct {
	ActualCosts domain.ActualCosts `json:"actual_costs" binding:"required"`
}

// Complete records actual consumption, deducts it from stock, and closes
// the order.
func (h *OrderHandler) Complete(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid completion request")
		return
	}

	if err := h.service.CompleteOrder(c.Request.Context(), orderID, req.ActualCosts); err != nil {
		if errors.Is(err, repository.ErrOrderNotOpen) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to complete order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// PredictCost predicts the final cost of an order.
func (h *OrderHandler) PredictCost(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	prediction, err := h.service.PredictCost(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "order not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to predict cost")
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorResponse(c, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}
