package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/pkg/response"
)

type userService interface {
	ListStudents(ctx context.Context) ([]models.StudentInfo, error)
}

// UserHandler serves user directory endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Students godoc
// @Summary List students
// @Description Returns all registered students ordered by name
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/students [get]
func (h *UserHandler) Students(c *gin.Context) {
	students, err := h.service.ListStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students)
}
