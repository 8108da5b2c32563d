package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/pkg/response"
)

type statsService interface {
	CategoryStats(ctx context.Context, rng string) (models.CategoryStats, bool, error)
	Summary(ctx context.Context) (*models.SummaryStats, bool, error)
}

// StatsHandler serves aggregated statistics endpoints.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler creates a new handler.
func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Categories godoc
// @Summary Category distribution
// @Description Returns per-test category counts within the requested time range
// @Tags Stats
// @Produce json
// @Param range query string false "Time range: 7d, 30d or all (default all)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tests/stats [get]
func (h *StatsHandler) Categories(c *gin.Context) {
	stats, cacheHit, err := h.service.CategoryStats(c.Request.Context(), c.DefaultQuery("range", "all"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, map[string]interface{}{"cache_hit": cacheHit})
}

// Summary godoc
// @Summary Aggregate summary
// @Description Returns totals, high anxiety and bullying counts across all results
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tests/summary [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	summary, cacheHit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, map[string]interface{}{"cache_hit": cacheHit})
}
