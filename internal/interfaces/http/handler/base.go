// Package handler implements the HTTP endpoints of the dashboard API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

// DashboardService is what the handlers need from the application layer
type DashboardService interface {
	Latest(ctx context.Context) (*app.Run, error)
	Refresh(ctx context.Context) (*app.Run, error)
	View(ctx context.Context) (*app.View, error)
	Mode() string
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithRun sends a success response carrying the run's metadata
func (h *BaseHandler) SuccessWithRun(c *gin.Context, run *app.Run, data any, count int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, dto.Meta{
		RunID:       run.ID,
		CollectedAt: run.Payload.CollectedAt,
		Count:       count,
	}))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps application errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	switch {
	case errors.Is(err, app.ErrOrderNotFound):
		h.NotFound(c, "Order not found")
	case errors.Is(err, app.ErrRunNotFound), errors.Is(err, app.ErrNoSources):
		h.ErrorWithCode(c, dto.ErrCodeNoData, "No dashboard data available yet")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.ErrorWithCode(c, dto.ErrCodeRefreshFailed, "Aggregation did not finish in time")
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
