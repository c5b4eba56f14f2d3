package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/academia/internal/app/models/dto"
	"github.com/yigit/academia/internal/pkg/logger"
)

// Pinger reports database reachability. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness endpoints
type HealthController struct {
	db Pinger
}

// NewHealthController creates a new HealthController. db may be nil.
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// Home handles GET /
func (h *HealthController) Home(ctx *gin.Context) {
	ok(ctx, http.StatusOK, dto.SuccessResponse{Message: "Academic records API"})
}

// Health handles GET /api/v1/health. The service is up even when the database is not.
func (h *HealthController) Health(ctx *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", Database: "unknown"}
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(pingCtx); err != nil {
			logger.Warn().Err(err).Msg("Health check: database unreachable")
			resp.Database = "down"
		} else {
			resp.Database = "up"
		}
	}
	ok(ctx, http.StatusOK, resp)
}
