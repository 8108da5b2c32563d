package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/internal/models"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
	"github.com/psychotest-app/psychotest-api/pkg/export"
)

type exportResultRepository interface {
	FindAll(ctx context.Context, filter models.ResultFilter) ([]models.TestResultDetail, error)
}

// ExportFile is a rendered export ready to be served.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

type exportArchiver interface {
	Archive(file *ExportFile)
}

// ExportService renders filtered result listings as downloadable files.
type ExportService struct {
	repo     exportResultRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	archiver exportArchiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs the service. The archiver may be nil.
func NewExportService(repo exportResultRepository, archiver exportArchiver, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:     repo,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

var exportHeaders = []string{"Student", "Email", "Test", "Score", "Category", "Submitted"}

// Export renders the filtered listing in the requested format.
func (s *ExportService) Export(ctx context.Context, format string, filter models.ResultFilter) (*ExportFile, error) {
	results, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load results for export")
	}

	dataset := buildDataset(results)
	stamp := s.now().UTC().Format("2006-01-02")

	var file *ExportFile
	switch format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		file = &ExportFile{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("test-results-%s.csv", stamp),
		}
	case "pdf":
		content, err := s.pdf.Render(dataset, "Test results")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		file = &ExportFile{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("test-results-%s.pdf", stamp),
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	if s.archiver != nil {
		s.archiver.Archive(file)
	}
	return file, nil
}

func buildDataset(results []models.TestResultDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, map[string]string{
			"Student":   r.UserName,
			"Email":     r.UserEmail,
			"Test":      string(r.Type),
			"Score":     strconv.FormatFloat(r.Score, 'f', 2, 64),
			"Category":  r.Category,
			"Submitted": r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
