package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/internal/models"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

type userRepository interface {
	ListStudents(ctx context.Context) ([]models.StudentInfo, error)
}

// UserService serves the student roster for psychologist views.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// ListStudents returns all registered students.
func (s *UserService) ListStudents(ctx context.Context) ([]models.StudentInfo, error) {
	students, err := s.repo.ListStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list students")
	}
	return students, nil
}
