package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
	"github.com/shopdash/backend/internal/interfaces/http/dto"
)

// ListOrdersQuery are the query parameters of GET /orders
type ListOrdersQuery struct {
	Channel   string `form:"channel" binding:"omitempty,oneof=cafe24 naver coupang"`
	Status    string `form:"status" binding:"omitempty,oneof=pending shipping delivered cancelled unknown"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Limit     *int   `form:"limit" binding:"omitempty,min=1,max=200"`
}

// Filter converts the query to a view filter
func (q ListOrdersQuery) Filter() app.OrderFilter {
	f := app.OrderFilter{
		Channel: sales.Channel(q.Channel),
		Status:  sales.OrderStatus(q.Status),
		From:    q.StartDate,
		To:      q.EndDate,
		Limit:   app.DefaultOrderLimit,
	}
	if q.Limit != nil {
		f.Limit = *q.Limit
	}
	return f
}

// OrderHandler serves canonical orders of the latest run
type OrderHandler struct {
	BaseHandler
	service DashboardService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service DashboardService) *OrderHandler {
	return &OrderHandler{service: service}
}

// List returns orders filtered by channel, status and date
func (h *OrderHandler) List(c *gin.Context) {
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, validationMessage(err))
		return
	}

	view, err := h.service.View(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	orders := view.Orders(q.Filter())
	h.SuccessWithRun(c, view.Run(), orders, len(orders))
}

// Get returns one order. Order IDs repeat across channels, so a channel
// query parameter narrows the lookup.
func (h *OrderHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("order_id"))
	if id == "" {
		h.BadRequest(c, "order_id is required")
		return
	}

	var ch sales.Channel
	if raw := c.Query("channel"); raw != "" {
		parsed, err := sales.ParseChannel(raw)
		if err != nil {
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, err.Error())
			return
		}
		ch = parsed
	}

	view, err := h.service.View(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	order, err := view.Order(id, ch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// PendingShipments returns every order awaiting shipment
func (h *OrderHandler) PendingShipments(c *gin.Context) {
	view, err := h.service.View(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	pending := view.PendingShipments()
	h.SuccessWithRun(c, view.Run(), pending, len(pending))
}

// Shipping returns orders in transit or carrying a tracking number
func (h *OrderHandler) Shipping(c *gin.Context) {
	view, err := h.service.View(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	shipping := view.Shipping()
	h.SuccessWithRun(c, view.Run(), shipping, len(shipping))
}

// validationMessage flattens binding errors into one readable line
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return "invalid query: " + strings.Join(parts, "; ")
}
