package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketsync/backend/internal/infrastructure/logger"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
	"github.com/marketsync/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is one named dependency check. A failing critical check
// makes the service unhealthy; any other failure only degrades it.
type HealthCheck struct {
	Name     string
	Pinger   Pinger
	Critical bool
}

// HealthResponse is the health endpoint body
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Time    string            `json:"time"`
	Checks  map[string]string `json:"checks"`
}

// HealthHandler reports service liveness and dependency state
type HealthHandler struct {
	BaseHandler
	version string
	started time.Time
	timeout time.Duration
	checks  []HealthCheck
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		version: version,
		started: time.Now(),
		timeout: 2 * time.Second,
		checks:  checks,
		now:     time.Now,
	}
}

// Routes returns the health route group
func (h *HealthHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("health", "/health").
		GET("", h.Health)
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  h.now().Sub(h.started).Truncate(time.Second).String(),
		Time:    h.now().UTC().Format(time.RFC3339),
		Checks:  make(map[string]string, len(h.checks)),
	}

	healthy := true
	for _, check := range h.checks {
		if err := check.Pinger.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed",
				zap.String("check", check.Name),
				zap.Error(err),
			)
			resp.Checks[check.Name] = "error"
			if check.Critical {
				healthy = false
			} else if resp.Status == "healthy" {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	if !healthy {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Service is unhealthy")
		return
	}
	c.JSON(http.StatusOK, resp)
}
