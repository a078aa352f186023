package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck checks one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports liveness and dependency status
type HealthHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	checks    []HealthCheck
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	GoVersion    string            `json:"goVersion"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(base BaseHandler, version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		version:     version,
		startTime:   time.Now(),
		checks:      checks,
	}
}

// Health answers 200 when every dependency responds and 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:       "ok",
		Version:      h.version,
		GoVersion:    runtime.Version(),
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Dependencies: make(map[string]string, len(h.checks)),
	}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Dependencies[check.Name] = "down"
			if !h.Production {
				resp.Dependencies[check.Name] = "down: " + err.Error()
			}
			continue
		}
		resp.Dependencies[check.Name] = "up"
	}

	if resp.Status != "ok" {
		body := dto.NewErrorResponse(http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Service degraded")
		body.Data = resp
		c.JSON(http.StatusServiceUnavailable, body.WithRequestID(getRequestID(c)))
		return
	}
	h.Success(c, http.StatusOK, "Service healthy", resp)
}
