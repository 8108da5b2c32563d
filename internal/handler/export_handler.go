package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/service"
	"github.com/psychotest-app/psychotest-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, format string, filter models.ResultFilter) (*service.ExportFile, error)
}

// ExportHandler streams result exports as file downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export results
// @Description Downloads test results as CSV or PDF
// @Tags Tests
// @Produce octet-stream
// @Param format query string false "Export format: csv or pdf (default csv)"
// @Param type query string false "Test type filter"
// @Param category query string false "Category filter"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tests/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	filter := models.ResultFilter{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Sort:     "asc",
	}

	file, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
