package omrxconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup_CopiesExistingFileWithTimestampSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	backupPath, err := Backup(path)
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestBackup_MissingFileReturnsEmptyPathNoError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	backupPath, err := Backup(path)
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestCleanupOldBackups_KeepsOnlyMaxBackupsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("v"), 0o644))

	var last string
	for i := 0; i < MaxBackups+2; i++ {
		bp, err := Backup(path)
		require.NoError(t, err)
		last = bp
	}

	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
	assert.Contains(t, backups, last)
}

func TestRestore_OverwritesPathWithBackupContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	backupPath, err := Backup(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("new"), 0o644))
	require.NoError(t, Restore(path, backupPath))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}
