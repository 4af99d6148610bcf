package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-batchcode-backend/internal/repo"
)

// GetStats handles GET /stats. It returns store aggregates: total codes
// issued, codes generated in the last 24 hours, and successful webhook runs
// in the same window.
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := repo.BatchCodeStats(c.Request.Context(), h.db, time.Now().UTC())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, "could not load stats")
		return
	}
	ok(c, http.StatusOK, stats)
}
