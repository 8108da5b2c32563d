package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/scoring"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

type resultRepository interface {
	Create(ctx context.Context, result *models.TestResult) error
	FindByID(ctx context.Context, id string) (*models.TestResult, error)
	FindByUser(ctx context.Context, userID string) ([]models.TestResult, error)
	FindAll(ctx context.Context, filter models.ResultFilter) ([]models.TestResultDetail, error)
}

// TestService scores submissions and serves results under the access policy.
// It is the sole writer of test result records: scoring and persistence are
// one logical step, and nothing is written when either fails.
type TestService struct {
	repo      resultRepository
	policy    *AccessPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTestService constructs the service.
func NewTestService(repo resultRepository, policy *AccessPolicy, validate *validator.Validate, logger *zap.Logger) *TestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = NewAccessPolicy()
	}
	return &TestService{repo: repo, policy: policy, validator: validate, logger: logger}
}

// SubmitTestRequest describes a raw submission payload.
type SubmitTestRequest struct {
	Type    string            `json:"type" validate:"required"`
	Answers []json.RawMessage `json:"answers" validate:"required"`
}

// ResultView is a stored record plus the Olweus sub-scale breakdown when
// present. The breakdown is not persisted; it is derived from the stored
// answers.
type ResultView struct {
	models.TestResult
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// Submit validates, scores and persists one submission for the caller.
func (s *TestService) Submit(ctx context.Context, claims *models.JWTClaims, req SubmitTestRequest) (*ResultView, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	testType := scoring.TestType(req.Type)
	result, err := scoring.Evaluate(testType, req.Answers)
	if err != nil {
		if errors.Is(err, scoring.ErrUnsupportedType) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedTestType.Code, appErrors.ErrUnsupportedTestType.Status, appErrors.ErrUnsupportedTestType.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	record := &models.TestResult{
		UserID:   claims.UserID,
		Type:     testType,
		Answers:  models.AnswerSet(req.Answers),
		Score:    result.Score,
		Category: result.Category,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store test result")
	}

	s.logger.Info("test scored",
		zap.String("result_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("type", string(record.Type)),
		zap.Float64("score", record.Score),
		zap.String("category", record.Category),
	)

	return &ResultView{TestResult: *record, Breakdown: result.Breakdown}, nil
}

// GetOwn returns the caller's results, newest first.
func (s *TestService) GetOwn(ctx context.Context, claims *models.JWTClaims) ([]models.TestResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	results, err := s.repo.FindByUser(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list test results")
	}
	return results, nil
}

// GetByID returns a single result after the access check. The existence
// check runs before the ownership rule.
func (s *TestService) GetByID(ctx context.Context, claims *models.JWTClaims, id string) (*ResultView, error) {
	result, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load test result")
	}
	if err := s.policy.CanRead(claims, result); err != nil {
		return nil, err
	}

	view := &ResultView{TestResult: *result}
	if rescored, err := scoring.Evaluate(result.Type, result.Answers); err == nil {
		view.Breakdown = rescored.Breakdown
	}
	return view, nil
}

// ListAll returns filtered results with owner annotations. Psychologist only.
func (s *TestService) ListAll(ctx context.Context, claims *models.JWTClaims, filter models.ResultFilter) ([]models.TestResultDetail, error) {
	if err := s.policy.CanListAll(claims); err != nil {
		return nil, err
	}
	results, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list test results")
	}
	return results, nil
}

// ListByUser returns one student's results for a psychologist, newest first.
func (s *TestService) ListByUser(ctx context.Context, claims *models.JWTClaims, targetUserID string) ([]models.TestResultDetail, error) {
	if err := s.policy.CanViewByUser(claims, targetUserID); err != nil {
		return nil, err
	}
	results, err := s.repo.FindAll(ctx, models.ResultFilter{UserID: targetUserID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list test results")
	}
	return results, nil
}
