package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slotbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.New(io.Discard)
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)

	cfg := config.BackupConfig{Enabled: true, StoragePath: storagePath, RetentionDays: 1}
	s := NewBackupService(db, dbPath, cfg, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(context.Background())
		require.NoError(t, err)
		assert.FileExists(t, path)

		snapshot, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer snapshot.Close()
		_, err = snapshot.GetClient(context.Background(), 1)
		assert.NoError(t, err, "snapshot carries the data")
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, backupPrefix+"old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		foreign := filepath.Join(storagePath, "keep.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))

		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))

		assert.Equal(t, 1, s.CleanupOldBackups())
		assert.NoFileExists(t, oldFile)
		assert.FileExists(t, foreign)
	})
}

func TestBackupService_Fallback(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("not really sqlite"), 0o644))

	logger := zerolog.Nop()
	s := NewBackupService(nil, dbPath, config.BackupConfig{Enabled: true, StoragePath: filepath.Join(tempDir, "b")}, &logger)

	path, err := s.PerformBackup(context.Background())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not really sqlite", string(data))
	assert.True(t, strings.HasPrefix(filepath.Base(path), backupPrefix))
}

func TestBackupService_MkdirError(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "notadir")
	require.NoError(t, os.WriteFile(tmpFile, nil, 0o644))

	logger := zerolog.Nop()
	s := NewBackupService(nil, ":memory:", config.BackupConfig{Enabled: true, StoragePath: filepath.Join(tmpFile, "sub")}, &logger)
	_, err := s.PerformBackup(context.Background())
	assert.Error(t, err)
}

func TestBackupService_Interval(t *testing.T) {
	logger := zerolog.Nop()
	assert.Equal(t, 24*time.Hour, NewBackupService(nil, "", config.BackupConfig{}, &logger).Interval())
	assert.Equal(t, time.Hour, NewBackupService(nil, "", config.BackupConfig{Schedule: "1h"}, &logger).Interval())
	assert.Equal(t, 24*time.Hour, NewBackupService(nil, "", config.BackupConfig{Schedule: "daily"}, &logger).Interval())
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(nil, "any", config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}

func TestBackupService_Loop(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "loop.db")
	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	cfg := config.BackupConfig{Enabled: true, Schedule: "20ms", StoragePath: filepath.Join(tempDir, "loop")}
	s := NewBackupService(db, dbPath, cfg, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	files, err := os.ReadDir(cfg.StoragePath)
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
