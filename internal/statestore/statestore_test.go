package statestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndUpdateSession(t *testing.T) {
	store := openTestStore(t)
	id := models.NewULID()

	require.NoError(t, store.CreateSession(context.Background(), id))
	require.NoError(t, store.UpdateStatus(id, models.SessionRunning, nil))

	var row Session
	require.NoError(t, store.db.Where("id = ?", id).First(&row).Error)
	assert.Equal(t, string(models.SessionRunning), row.Status)
}

func TestGetSession(t *testing.T) {
	store := openTestStore(t)
	id := models.NewULID()
	require.NoError(t, store.CreateSession(context.Background(), id))

	row, err := store.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, string(models.SessionPending), row.Status)
}

func TestGetSessionNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetSession(context.Background(), models.NewULID())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateStatusUnknownSessionErrors(t *testing.T) {
	store := openTestStore(t)
	err := store.UpdateStatus(models.NewULID(), models.SessionFailed, nil)
	assert.Error(t, err)
}

func TestSetMetadataMergesKeys(t *testing.T) {
	store := openTestStore(t)
	id := models.NewULID()
	require.NoError(t, store.CreateSession(context.Background(), id))

	require.NoError(t, store.SetMetadata(id, "posts_acquired", 42))
	require.NoError(t, store.SetMetadata(id, "target", "r/golang"))

	var row Session
	require.NoError(t, store.db.Where("id = ?", id).First(&row).Error)
	meta, err := decodeMetadata(row.MetadataRaw)
	require.NoError(t, err)
	assert.EqualValues(t, 42, meta["posts_acquired"])
	assert.Equal(t, "r/golang", meta["target"])
}

func TestFindResumableReturnsOnlyRunning(t *testing.T) {
	store := openTestStore(t)
	running := models.NewULID()
	done := models.NewULID()
	require.NoError(t, store.CreateSession(context.Background(), running))
	require.NoError(t, store.CreateSession(context.Background(), done))
	require.NoError(t, store.UpdateStatus(running, models.SessionRunning, nil))
	require.NoError(t, store.UpdateStatus(done, models.SessionCompleted, nil))

	rows, err := store.FindResumable(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, running, rows[0].ID)
}
