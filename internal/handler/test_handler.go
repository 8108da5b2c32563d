package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/service"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
	"github.com/psychotest-app/psychotest-api/pkg/response"
)

type testService interface {
	Submit(ctx context.Context, claims *models.JWTClaims, req service.SubmitTestRequest) (*service.ResultView, error)
	GetOwn(ctx context.Context, claims *models.JWTClaims) ([]models.TestResult, error)
	GetByID(ctx context.Context, claims *models.JWTClaims, id string) (*service.ResultView, error)
	ListAll(ctx context.Context, claims *models.JWTClaims, filter models.ResultFilter) ([]models.TestResultDetail, error)
	ListByUser(ctx context.Context, claims *models.JWTClaims, targetUserID string) ([]models.TestResultDetail, error)
}

// TestHandler wires HTTP endpoints to the test service.
type TestHandler struct {
	service testService
}

// NewTestHandler creates a new handler.
func NewTestHandler(svc testService) *TestHandler {
	return &TestHandler{service: svc}
}

// Submit godoc
// @Summary Submit a test
// @Description Score and store a questionnaire submission for the current student
// @Tags Tests
// @Accept json
// @Produce json
// @Param payload body service.SubmitTestRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tests/submit [post]
func (h *TestHandler) Submit(c *gin.Context) {
	var req service.SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	res, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// My godoc
// @Summary List own results
// @Description Returns the current student's results, newest first
// @Tags Tests
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /tests/my [get]
func (h *TestHandler) My(c *gin.Context) {
	results, err := h.service.GetOwn(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results)
}

// All godoc
// @Summary List all results
// @Description Returns results across students with optional filters
// @Tags Tests
// @Produce json
// @Param type query string false "Test type (PHILLIPS or OLWEUS)"
// @Param category query string false "Category label"
// @Param userId query string false "Owner user id"
// @Param sort query string false "Sort by creation time: asc or desc (default desc)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tests/all [get]
func (h *TestHandler) All(c *gin.Context) {
	filter := models.ResultFilter{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		UserID:   c.Query("userId"),
		Sort:     c.DefaultQuery("sort", "desc"),
	}

	results, err := h.service.ListAll(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results)
}

// ByID godoc
// @Summary Get one result
// @Description Returns a single result; students may only read their own
// @Tags Tests
// @Produce json
// @Param id path string true "Result id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id} [get]
func (h *TestHandler) ByID(c *gin.Context) {
	result, err := h.service.GetByID(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result)
}

// ByUser godoc
// @Summary List one student's results
// @Description Returns all results for the given student, newest first
// @Tags Tests
// @Produce json
// @Param userId path string true "Student user id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tests/by-user/{userId} [get]
func (h *TestHandler) ByUser(c *gin.Context) {
	results, err := h.service.ListByUser(c.Request.Context(), claimsFromContext(c), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results)
}
