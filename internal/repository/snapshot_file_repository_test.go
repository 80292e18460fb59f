package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/pkg/storage"
)

func TestSnapshotFileRepositoryRoundTrip(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewSnapshotFileRepository(local, "events.json")

	_, err = repo.Load()
	require.ErrorIs(t, err, storage.ErrNotExist)

	require.NoError(t, repo.Save(models.StoreSnapshot{
		Revision: 3,
		Events:   []models.Event{{ID: "a", Title: "Lunch", IsDeleted: true}},
	}))
	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, uint64(3), loaded.Revision)
	require.True(t, loaded.Events[0].IsDeleted)
}

func TestSnapshotFileRepositoryReadsBareEventList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte(`[
  {"id": "1", "title": "Dentist", "start": "2024-03-04T15:00", "end": "2024-03-04T16:00", "allDay": false}
]`), 0o600))
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	loaded, err := NewSnapshotFileRepository(local, "events.json").Load()
	require.NoError(t, err)
	require.Zero(t, loaded.Revision)
	require.Len(t, loaded.Events, 1)
	require.Equal(t, "Dentist", loaded.Events[0].Title)
	require.False(t, loaded.Events[0].IsDeleted)
}
