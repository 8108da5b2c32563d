package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/scoring"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

type fakeResultRepo struct {
	created    []*models.TestResult
	createErr  error
	byID       map[string]*models.TestResult
	byUser     map[string][]models.TestResult
	all        []models.TestResultDetail
	allErr     error
	lastFilter models.ResultFilter
}

func (f *fakeResultRepo) Create(_ context.Context, result *models.TestResult) error {
	if f.createErr != nil {
		return f.createErr
	}
	result.ID = "result-" + strconv.Itoa(len(f.created)+1)
	f.created = append(f.created, result)
	return nil
}

func (f *fakeResultRepo) FindByID(_ context.Context, id string) (*models.TestResult, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeResultRepo) FindByUser(_ context.Context, userID string) ([]models.TestResult, error) {
	return f.byUser[userID], nil
}

func (f *fakeResultRepo) FindAll(_ context.Context, filter models.ResultFilter) ([]models.TestResultDetail, error) {
	f.lastFilter = filter
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.all, nil
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func psychologistClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "psy-1", Role: models.RolePsychologist}
}

func stringAnswers(count int, value string) []json.RawMessage {
	answers := make([]json.RawMessage, count)
	for i := range answers {
		raw, _ := json.Marshal(value)
		answers[i] = raw
	}
	return answers
}

func intAnswers(count, value int) []json.RawMessage {
	answers := make([]json.RawMessage, count)
	for i := range answers {
		answers[i] = json.RawMessage(strconv.Itoa(value))
	}
	return answers
}

func TestSubmitPhillipsPersistsScoredRecord(t *testing.T) {
	repo := &fakeResultRepo{}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	res, err := svc.Submit(context.Background(), studentClaims("stu-1"), SubmitTestRequest{
		Type:    "PHILLIPS",
		Answers: stringAnswers(58, "нет"),
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	stored := repo.created[0]
	assert.Equal(t, "stu-1", stored.UserID)
	assert.Equal(t, scoring.TypePhillips, stored.Type)
	assert.Len(t, stored.Answers, 58)
	// 45 keysNo matches out of 58 = 77.59%.
	assert.Equal(t, 77.59, stored.Score)
	assert.Equal(t, "высокая тревожность", stored.Category)
	assert.Nil(t, res.Breakdown)
}

func TestSubmitOlweusIncludesBreakdown(t *testing.T) {
	repo := &fakeResultRepo{}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	res, err := svc.Submit(context.Background(), studentClaims("stu-1"), SubmitTestRequest{
		Type:    "OLWEUS",
		Answers: intAnswers(13, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Score)
	assert.Equal(t, "ярко выражен", res.Category)
	require.Len(t, res.Breakdown, 4)
	for scale, mean := range res.Breakdown {
		assert.Equal(t, 4.0, mean, "scale %s", scale)
	}
}

func TestSubmitUnsupportedTypeDoesNotPersist(t *testing.T) {
	repo := &fakeResultRepo{}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), studentClaims("stu-1"), SubmitTestRequest{
		Type:    "MMPI",
		Answers: intAnswers(13, 0),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedTestType.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestSubmitMalformedAnswersDoesNotPersist(t *testing.T) {
	repo := &fakeResultRepo{}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	answers := intAnswers(13, 2)
	answers[4] = json.RawMessage("null")
	_, err := svc.Submit(context.Background(), studentClaims("stu-1"), SubmitTestRequest{
		Type:    "OLWEUS",
		Answers: answers,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)

	_, err = svc.Submit(context.Background(), studentClaims("stu-1"), SubmitTestRequest{
		Type:    "PHILLIPS",
		Answers: stringAnswers(57, "да"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestSubmitPersistenceFailureSurfaces(t *testing.T) {
	repo := &fakeResultRepo{createErr: errors.New("connection reset")}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), studentClaims("stu-1"), SubmitTestRequest{
		Type:    "OLWEUS",
		Answers: intAnswers(13, 1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := &fakeResultRepo{byID: map[string]*models.TestResult{}}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	_, err := svc.GetByID(context.Background(), psychologistClaims(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetByIDOwnershipRule(t *testing.T) {
	result := &models.TestResult{ID: "r1", UserID: "stu-1", Type: scoring.TypePhillips}
	repo := &fakeResultRepo{byID: map[string]*models.TestResult{"r1": result}}
	svc := NewTestService(repo, nil, nil, zap.NewNop())
	ctx := context.Background()

	got, err := svc.GetByID(ctx, studentClaims("stu-1"), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)

	_, err = svc.GetByID(ctx, studentClaims("stu-2"), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err = svc.GetByID(ctx, psychologistClaims(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
}

func TestGetByIDRecomputesOlweusBreakdown(t *testing.T) {
	result := &models.TestResult{
		ID:      "r1",
		UserID:  "stu-1",
		Type:    scoring.TypeOlweus,
		Answers: models.AnswerSet(intAnswers(13, 4)),
	}
	repo := &fakeResultRepo{byID: map[string]*models.TestResult{"r1": result}}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	got, err := svc.GetByID(context.Background(), studentClaims("stu-1"), "r1")
	require.NoError(t, err)
	require.Len(t, got.Breakdown, 4)
	assert.Equal(t, 4.0, got.Breakdown[scoring.ScaleDirectBullying])
}

func TestGetByIDIsReadOnly(t *testing.T) {
	result := &models.TestResult{ID: "r1", UserID: "stu-1", Score: 22.41, Category: "норма"}
	repo := &fakeResultRepo{byID: map[string]*models.TestResult{"r1": result}}
	svc := NewTestService(repo, nil, nil, zap.NewNop())
	ctx := context.Background()

	first, err := svc.GetByID(ctx, studentClaims("stu-1"), "r1")
	require.NoError(t, err)
	second, err := svc.GetByID(ctx, studentClaims("stu-1"), "r1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListAllRequiresPsychologist(t *testing.T) {
	repo := &fakeResultRepo{all: []models.TestResultDetail{{UserName: "Aisha"}}}
	svc := NewTestService(repo, nil, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ListAll(ctx, studentClaims("stu-1"), models.ResultFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	filter := models.ResultFilter{Type: "PHILLIPS", Category: "норма", Sort: "asc"}
	results, err := svc.ListAll(ctx, psychologistClaims(), filter)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, filter, repo.lastFilter)
}

func TestListByUserRequiresPsychologist(t *testing.T) {
	repo := &fakeResultRepo{}
	svc := NewTestService(repo, nil, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ListByUser(ctx, studentClaims("stu-1"), "stu-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.ListByUser(ctx, psychologistClaims(), "stu-2")
	require.NoError(t, err)
	assert.Equal(t, "stu-2", repo.lastFilter.UserID)
}

func TestGetOwnReturnsCallerResults(t *testing.T) {
	repo := &fakeResultRepo{byUser: map[string][]models.TestResult{
		"stu-1": {{ID: "r1", UserID: "stu-1"}},
	}}
	svc := NewTestService(repo, nil, nil, zap.NewNop())

	results, err := svc.GetOwn(context.Background(), studentClaims("stu-1"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].ID)
}
