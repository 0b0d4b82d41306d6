package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_notifier/internal/config"
	"news_notifier/internal/storage/file"
)

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for level, want := range tests {
		logger := setupLogger(level)
		assert.True(t, logger.Enabled(ctx, want), level)
		if want > slog.LevelDebug {
			assert.False(t, logger.Enabled(ctx, want-1), level)
		}
	}
}

func TestOpenSnapshotStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	store, err := openSnapshotStore(config.StorageConfig{Driver: config.StorageFile, CachePath: path})
	require.NoError(t, err)
	defer store.Close()

	fileStore, ok := store.(*file.SnapshotStore)
	require.True(t, ok)
	assert.Equal(t, path, fileStore.Path())

	require.NoError(t, store.Init(context.Background()))
	assert.FileExists(t, path)
}
