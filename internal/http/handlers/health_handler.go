package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Database      string `json:"database"`
	MondayAPI     bool   `json:"monday_api"`
}

// Health handles GET /health. The probe itself always returns 200; degraded
// dependencies are reported in the body so orchestrators keep the process
// alive while operators see what is down.
func (h *Handlers) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Database:      "up",
	}
	if resp.Version == "" {
		resp.Version = "dev"
	}

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			resp.Database = "down"
			resp.Status = "degraded"
		}
	} else {
		resp.Database = "down"
		resp.Status = "degraded"
	}

	if h.tester != nil {
		resp.MondayAPI = h.tester.TestConnection(c.Request.Context())
	}

	ok(c, http.StatusOK, resp)
}
