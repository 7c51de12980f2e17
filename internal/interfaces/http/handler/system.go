package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invtrack/backend/internal/infrastructure/sharding"
	"github.com/invtrack/backend/internal/interfaces/http/dto"
)

// SystemHandler handles health and system info endpoints
type SystemHandler struct {
	BaseHandler
	registry  *sharding.Registry
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(registry *sharding.Registry) *SystemHandler {
	return &SystemHandler{
		registry:  registry,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	GoVersion string                 `json:"go_version"`
	Uptime    string                 `json:"uptime"`
	Shards    []sharding.ShardHealth `json:"shards"`
}

// Health handles GET /healthz. Degraded when any shard pool is down; the
// process stays up because healthy shards keep serving their tenants.
func (h *SystemHandler) Health(c *gin.Context) {
	shards := h.registry.Health(c.Request.Context())

	status := "ok"
	httpStatus := http.StatusOK
	for _, s := range shards {
		if !s.Healthy {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, dto.NewSuccessResponse(HealthResponse{
		Status:    status,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Shards:    shards,
	}))
}
