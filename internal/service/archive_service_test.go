package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/pkg/storage"
)

func TestArchiveWritesFileInBackground(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewArchiveService(store, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Archive(&ExportFile{
		Content:     []byte("a,b\n"),
		ContentType: "text/csv",
		Filename:    "test-results-2025-03-02.csv",
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		data, err := os.ReadFile(store.Path("test-results-2025-03-02.csv"))
		if err == nil {
			require.Equal(t, "a,b\n", string(data))
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("archived file never appeared: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestArchiveNilFileIsNoop(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewArchiveService(store, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Archive(nil)
}
