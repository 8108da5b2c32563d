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
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

type fakeAuthSrv struct {
	registerResp *models.AuthResponse
	registerErr  error
	loginResp    *models.AuthResponse
	loginErr     error
	lastRegister models.RegisterRequest
	lastLogin    models.LoginRequest
}

func (f *fakeAuthSrv) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.lastRegister = req
	return f.registerResp, f.registerErr
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.lastLogin = req
	return f.loginResp, f.loginErr
}

func TestAuthHandlerRegisterSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{
		registerResp: &models.AuthResponse{
			AccessToken: "token-1",
			User:        models.UserInfo{ID: "user-1", Email: "ivan@example.com", Role: models.RoleStudent},
		},
	}
	handler := NewAuthHandler(srv)

	body := `{"email":"ivan@example.com","password":"secret123","full_name":"Иван Петров","role":"STUDENT"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ivan@example.com", srv.lastRegister.Email)
	assert.Equal(t, "STUDENT", srv.lastRegister.Role)
}

func TestAuthHandlerRegisterRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials})

	body := `{"email":"ivan@example.com","password":"wrong"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeReturnsClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:   "user-1",
		Email:    "ivan@example.com",
		FullName: "Иван Петров",
		Role:     models.RoleStudent,
	})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "user-1", envelope.Data["id"])
	assert.Equal(t, "STUDENT", envelope.Data["role"])
}

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
