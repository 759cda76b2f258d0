package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/infrastructure/scheduler"
	"github.com/shopdash/backend/internal/interfaces/http/dto"
)

// Listing defaults
const (
	DefaultRunLimit = 20
	DefaultJobLimit = 20
)

// ListRunsQuery are the query parameters of GET /runs
type ListRunsQuery struct {
	Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// RunDetail is a stored run with its full payload
type RunDetail struct {
	RefreshReport
	Payload dashboard.Payload `json:"payload"`
}

// RunHandler serves the history of stored runs
type RunHandler struct {
	BaseHandler
	history app.RunHistory
}

// NewRunHandler creates a new RunHandler
func NewRunHandler(history app.RunHistory) *RunHandler {
	return &RunHandler{history: history}
}

// List returns the most recent runs, newest first
func (h *RunHandler) List(c *gin.Context) {
	var q ListRunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, validationMessage(err))
		return
	}
	limit := DefaultRunLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	runs, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(runs, dto.Meta{Count: len(runs)}))
}

// Get returns one stored run
func (h *RunHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("run_id"))
	if id == "" {
		h.BadRequest(c, "run_id is required")
		return
	}

	run, err := h.history.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, app.ErrRunNotFound) {
			_ = c.Error(err)
			h.NotFound(c, "Run not found")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, RunDetail{
		RefreshReport: NewRefreshReport(run, ""),
		Payload:       run.Payload,
	})
}

// RefreshJobs is the scheduled refresh loop as seen by the API
type RefreshJobs interface {
	Trigger() error
	GetJobHistory(limit int) []*scheduler.RefreshJob
}

var _ RefreshJobs = (*scheduler.RefreshScheduler)(nil)

// RefreshJobHandler exposes the refresh scheduler
type RefreshJobHandler struct {
	BaseHandler
	jobs RefreshJobs
}

// NewRefreshJobHandler creates a new RefreshJobHandler
func NewRefreshJobHandler(jobs RefreshJobs) *RefreshJobHandler {
	return &RefreshJobHandler{jobs: jobs}
}

// List returns recent scheduled refresh jobs, newest first
func (h *RefreshJobHandler) List(c *gin.Context) {
	var q ListRunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, validationMessage(err))
		return
	}
	limit := DefaultJobLimit
	if q.Limit != nil {
		limit = *q.Limit
	}
	jobs := h.jobs.GetJobHistory(limit)
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(jobs, dto.Meta{Count: len(jobs)}))
}

// Trigger queues a refresh on the scheduler loop and returns immediately
func (h *RefreshJobHandler) Trigger(c *gin.Context) {
	err := h.jobs.Trigger()
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"queued": true}))
	case errors.Is(err, scheduler.ErrRefreshPending):
		_ = c.Error(err)
		h.ErrorWithCode(c, dto.ErrCodeConflict, "A refresh is already queued")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		_ = c.Error(err)
		h.ErrorWithCode(c, dto.ErrCodeNoData, "Refresh scheduler is not running")
	default:
		h.HandleError(c, err)
	}
}
