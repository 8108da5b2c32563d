package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("reports/results.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "reports/results.csv", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close()

	data, err := os.ReadFile(store.Path(name))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestDeleteMissingFileIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("never-written.pdf"))
}

func TestCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("stale.csv", []byte("old"))
	require.NoError(t, err)
	stalePath := filepath.Join(dir, "stale.csv")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	_, err = store.Save("fresh.csv", []byte("new"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.csv"}, deleted)
	assert.FileExists(t, filepath.Join(dir, "fresh.csv"))
}
