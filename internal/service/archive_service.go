package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/pkg/jobs"
	"github.com/psychotest-app/psychotest-api/pkg/storage"
)

// ArchiveService keeps copies of generated exports on disk. Writes happen on
// a background runner so a slow disk never delays the download response.
type ArchiveService struct {
	store  *storage.LocalStorage
	runner *jobs.Runner
	logger *zap.Logger
}

// NewArchiveService constructs the service.
func NewArchiveService(store *storage.LocalStorage, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ArchiveService{store: store, logger: logger}
	s.runner = jobs.NewRunner("export-archive", s.handle, jobs.Options{Logger: logger})
	return s
}

// Start launches the background runner.
func (s *ArchiveService) Start(ctx context.Context) {
	s.runner.Start(ctx)
}

// Stop drains the runner.
func (s *ArchiveService) Stop() {
	s.runner.Stop()
}

// Archive schedules a copy of the file to be written to disk.
func (s *ArchiveService) Archive(file *ExportFile) {
	if s == nil || file == nil {
		return
	}
	task := jobs.Task{ID: uuid.NewString(), Kind: "export-archive", Payload: *file}
	if err := s.runner.Submit(task); err != nil {
		s.logger.Warn("failed to schedule export archive", zap.String("filename", file.Filename), zap.Error(err))
	}
}

func (s *ArchiveService) handle(_ context.Context, task jobs.Task) error {
	file, ok := task.Payload.(ExportFile)
	if !ok {
		return fmt.Errorf("unexpected archive payload %T", task.Payload)
	}
	if _, err := s.store.Save(file.Filename, file.Content); err != nil {
		return err
	}
	s.logger.Info("export archived", zap.String("filename", file.Filename))
	return nil
}
