package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/scoring"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

func exportFixture() []models.TestResultDetail {
	createdAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []models.TestResultDetail{
		{
			TestResult: models.TestResult{
				ID:        "r1",
				UserID:    "stu-1",
				Type:      scoring.TypePhillips,
				Score:     77.59,
				Category:  "высокая тревожность",
				CreatedAt: createdAt,
			},
			UserName:  "Aisha",
			UserEmail: "aisha@example.com",
			UserRole:  models.RoleStudent,
		},
	}
}

func TestExportCSV(t *testing.T) {
	repo := &fakeResultRepo{all: exportFixture()}
	svc := NewExportService(repo, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC) }

	file, err := svc.Export(context.Background(), "csv", models.ResultFilter{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "test-results-2025-03-02.csv", file.Filename)

	content := string(file.Content)
	assert.True(t, strings.HasPrefix(content, "Student,Email,Test,Score,Category,Submitted"))
	assert.Contains(t, content, "Aisha,aisha@example.com,PHILLIPS,77.59,высокая тревожность,2025-03-01T09:30:00Z")
}

func TestExportPDF(t *testing.T) {
	repo := &fakeResultRepo{all: exportFixture()}
	svc := NewExportService(repo, nil, zap.NewNop())

	file, err := svc.Export(context.Background(), "pdf", models.ResultFilter{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportPassesFilterThrough(t *testing.T) {
	repo := &fakeResultRepo{all: exportFixture()}
	svc := NewExportService(repo, nil, zap.NewNop())

	filter := models.ResultFilter{Type: "PHILLIPS", Sort: "asc"}
	_, err := svc.Export(context.Background(), "csv", filter)
	require.NoError(t, err)
	assert.Equal(t, filter, repo.lastFilter)
}

type fakeArchiver struct {
	archived []*ExportFile
}

func (f *fakeArchiver) Archive(file *ExportFile) {
	f.archived = append(f.archived, file)
}

func TestExportArchivesRenderedFile(t *testing.T) {
	repo := &fakeResultRepo{all: exportFixture()}
	archiver := &fakeArchiver{}
	svc := NewExportService(repo, archiver, zap.NewNop())

	file, err := svc.Export(context.Background(), "csv", models.ResultFilter{})
	require.NoError(t, err)
	require.Len(t, archiver.archived, 1)
	assert.Equal(t, file.Filename, archiver.archived[0].Filename)
}

func TestExportUnsupportedFormat(t *testing.T) {
	repo := &fakeResultRepo{}
	svc := NewExportService(repo, nil, zap.NewNop())

	_, err := svc.Export(context.Background(), "xlsx", models.ResultFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
