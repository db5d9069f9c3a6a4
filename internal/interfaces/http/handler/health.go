package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labelprint/labelprint/internal/interfaces/http/dto"
)

// HealthHandler reports whether the print server can take labels
type HealthHandler struct {
	BaseHandler
	printers  func() int
	ping      func(ctx context.Context) error
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. ping checks the job
// database and may be nil.
func NewHealthHandler(printers func() int, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		printers:  printers,
		ping:      ping,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Printers int    `json:"printers"`
	Uptime   string `json:"uptime"`
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "up",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.printers != nil {
		resp.Printers = h.printers()
	}

	status := http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "down"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
