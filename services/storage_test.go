package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mps_intranet_go/config"
	"mps_intranet_go/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage(t *testing.T) {
	storage := NewLocalStorage(t.TempDir())
	ctx := context.Background()
	content := "hello backup"
	key := "backups/2026-01-02-abc.json"

	t.Run("Put creates file", func(t *testing.T) {
		err := storage.Put(ctx, key, strings.NewReader(content), "application/json", int64(len(content)))
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(storage.Location(), "backups", "2026-01-02-abc.json"))
		assert.NoError(t, err)
	})

	t.Run("Get returns content", func(t *testing.T) {
		reader, err := storage.Get(ctx, key)
		require.NoError(t, err)
		defer reader.Close()

		got, _ := io.ReadAll(reader)
		assert.Equal(t, content, string(got))
	})

	t.Run("List filters by prefix", func(t *testing.T) {
		require.NoError(t, storage.Put(ctx, "other/x.txt", strings.NewReader("x"), "text/plain", 1))

		keys, err := storage.List(ctx, "backups/")
		require.NoError(t, err)
		assert.Equal(t, []string{key}, keys)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		assert.NoError(t, storage.Delete(ctx, key))
		assert.NoError(t, storage.Delete(ctx, key))

		_, err := storage.Get(ctx, key)
		assert.ErrorIs(t, err, db.ErrNotFound)
	})
}

func TestLocalStorageListMissingDir(t *testing.T) {
	storage := NewLocalStorage(filepath.Join(t.TempDir(), "nope"))
	keys, err := storage.List(context.Background(), "")
	assert.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNewBackupStorageFallsBackToLocal(t *testing.T) {
	dir := t.TempDir()
	storage := NewBackupStorage(context.Background(), &config.Config{BackupDir: dir}, zap.NewNop())

	local, ok := storage.(*LocalStorage)
	require.True(t, ok)
	assert.Equal(t, dir, local.Location())
}
