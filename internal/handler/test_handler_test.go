package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/psychotest-app/psychotest-api/internal/middleware"
	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/scoring"
	"github.com/psychotest-app/psychotest-api/internal/service"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

type fakeTestSrv struct {
	submitResp *service.ResultView
	submitErr  error
	ownResults []models.TestResult
	byIDResult *service.ResultView
	byIDErr    error
	allResults []models.TestResultDetail
	allErr     error

	lastClaims *models.JWTClaims
	lastSubmit service.SubmitTestRequest
	lastFilter models.ResultFilter
	lastUserID string
	lastID     string
}

func (f *fakeTestSrv) Submit(_ context.Context, claims *models.JWTClaims, req service.SubmitTestRequest) (*service.ResultView, error) {
	f.lastClaims = claims
	f.lastSubmit = req
	return f.submitResp, f.submitErr
}

func (f *fakeTestSrv) GetOwn(_ context.Context, claims *models.JWTClaims) ([]models.TestResult, error) {
	f.lastClaims = claims
	return f.ownResults, nil
}

func (f *fakeTestSrv) GetByID(_ context.Context, claims *models.JWTClaims, id string) (*service.ResultView, error) {
	f.lastClaims = claims
	f.lastID = id
	return f.byIDResult, f.byIDErr
}

func (f *fakeTestSrv) ListAll(_ context.Context, claims *models.JWTClaims, filter models.ResultFilter) ([]models.TestResultDetail, error) {
	f.lastClaims = claims
	f.lastFilter = filter
	return f.allResults, f.allErr
}

func (f *fakeTestSrv) ListByUser(_ context.Context, claims *models.JWTClaims, targetUserID string) ([]models.TestResultDetail, error) {
	f.lastClaims = claims
	f.lastUserID = targetUserID
	return f.allResults, f.allErr
}

func TestTestHandlerSubmitRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTestHandler(&fakeTestSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/tests/submit", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestHandlerSubmitSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTestSrv{
		submitResp: &service.ResultView{
			TestResult: models.TestResult{
				ID:       "result-1",
				Type:     scoring.TypePhillips,
				Score:    22.41,
				Category: "норма",
			},
		},
	}
	handler := NewTestHandler(srv)

	body := `{"type":"PHILLIPS","answers":["да","нет"]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/tests/submit", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "student-1", srv.lastClaims.UserID)
	assert.Equal(t, "PHILLIPS", srv.lastSubmit.Type)
	assert.Len(t, srv.lastSubmit.Answers, 2)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "result-1", envelope.Data["id"])
	assert.Equal(t, "норма", envelope.Data["category"])
}

func TestTestHandlerByIDForwardsServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTestSrv{byIDErr: appErrors.ErrForbidden}
	handler := NewTestHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tests/result-9", nil)
	c.Params = gin.Params{{Key: "id", Value: "result-9"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-2", Role: models.RoleStudent})

	handler.ByID(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "result-9", srv.lastID)
}

func TestTestHandlerAllBindsQueryFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTestSrv{allResults: []models.TestResultDetail{}}
	handler := NewTestHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tests/all?type=OLWEUS&category=слабо+выражен&sort=asc", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "psy-1", Role: models.RolePsychologist})

	handler.All(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OLWEUS", srv.lastFilter.Type)
	assert.Equal(t, "слабо выражен", srv.lastFilter.Category)
	assert.Equal(t, "asc", srv.lastFilter.Sort)
}

func TestTestHandlerAllDefaultsSortDesc(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTestSrv{}
	handler := NewTestHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tests/all", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "psy-1", Role: models.RolePsychologist})

	handler.All(c)

	assert.Equal(t, "desc", srv.lastFilter.Sort)
}

func TestTestHandlerByUserPassesParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTestSrv{}
	handler := NewTestHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tests/by-user/student-7", nil)
	c.Params = gin.Params{{Key: "userId", Value: "student-7"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "psy-1", Role: models.RolePsychologist})

	handler.ByUser(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "student-7", srv.lastUserID)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
