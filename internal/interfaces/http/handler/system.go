package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/interfaces/http/dto"
)

// Health statuses
const (
	HealthOK       = "healthy"
	HealthDegraded = "degraded"
	HealthNoData   = "no_data"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	version   string
	reader    app.RunReader
	mode      string
	checks    map[string]HealthCheck
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. reader is consulted for the
// last run without triggering a new one.
func NewSystemHandler(version, mode string, reader app.RunReader, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{
		version:   version,
		reader:    reader,
		mode:      mode,
		checks:    checks,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Mode         string            `json:"mode"`
	MockMode     bool              `json:"mock_mode"`
	GoVersion    string            `json:"go_version"`
	Uptime       string            `json:"uptime"`
	Timestamp    string            `json:"timestamp"`
	LastRunID    string            `json:"last_run_id,omitempty"`
	LastRunAt    *time.Time        `json:"last_run_at,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Health reports the data source mode, the latest run and dependency state.
// It always answers 200 so the process stays routable while degraded.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	resp := HealthResponse{
		Status:    HealthOK,
		Version:   h.version,
		Mode:      h.mode,
		MockMode:  h.mode == "fixture",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if h.reader != nil {
		run, err := h.reader.LatestRun(ctx)
		switch {
		case err == nil:
			resp.LastRunID = run.ID
			finished := run.FinishedAt
			resp.LastRunAt = &finished
			if run.Degraded() {
				resp.Status = HealthDegraded
			}
		case errors.Is(err, app.ErrRunNotFound):
			resp.Status = HealthNoData
		default:
			resp.Status = HealthDegraded
		}
	}

	if len(h.checks) > 0 {
		resp.Dependencies = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.Dependencies[name] = "down: " + err.Error()
				resp.Status = HealthDegraded
				continue
			}
			resp.Dependencies[name] = "up"
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping answers liveness checks
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
