package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shopdash/backend/internal/domain/stock"
	"github.com/shopdash/backend/internal/interfaces/http/dto"
)

// InventoryQuery are the query parameters of GET /inventory
type InventoryQuery struct {
	Status       string `form:"status" binding:"omitempty,oneof=normal low out_of_stock"`
	LowStockOnly bool   `form:"low_stock_only"`
}

// AnalyticsHandler serves inventory and sales analytics of the latest run
type AnalyticsHandler struct {
	BaseHandler
	service DashboardService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service DashboardService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Inventory lists stock positions, optionally only those needing attention
func (h *AnalyticsHandler) Inventory(c *gin.Context) {
	var q InventoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, validationMessage(err))
		return
	}

	view, err := h.service.View(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := view.Inventory(stock.Status(q.Status), q.LowStockOnly)
	h.SuccessWithRun(c, view.Run(), items, len(items))
}

// Weekly returns the seven-day revenue series
func (h *AnalyticsHandler) Weekly(c *gin.Context) {
	view, err := h.service.View(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	weekly := view.Weekly()
	h.SuccessWithRun(c, view.Run(), weekly, len(weekly))
}

// Channels returns the channel breakdown with per-status order counts
func (h *AnalyticsHandler) Channels(c *gin.Context) {
	view, err := h.service.View(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	analytics := view.Channels()
	h.SuccessWithRun(c, view.Run(), analytics, len(analytics.Breakdown))
}
