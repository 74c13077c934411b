package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := `
app:
  timezone: "UTC"
database:
  path: "` + filepath.Join(dir, "careercraft.db") + `"
storage:
  uploads_dir: "` + filepath.Join(dir, "uploads") + `"
exports:
  path: "` + filepath.Join(dir, "exports") + `"
backup:
  storage_path: "` + filepath.Join(dir, "backups") + `"
logging:
  level: "error"
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, dir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	defer func() {
		rootCmd.SetArgs(nil)
		_ = exportCmd.Flags().Set("dir", "")
	}()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestExportCommand(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)

	require.NoError(t, execute(t, "--config", cfgPath, "export", "consultations"))

	entries, err := os.ReadDir(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "consultations_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".xlsx"))

	out := filepath.Join(dir, "reports")
	require.NoError(t, execute(t, "--config", cfgPath, "export", "registrations", "--dir", out))
	entries, err = os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportCommandRejectsUnknownTable(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	err := execute(t, "--config", cfgPath, "export", "partners")
	assert.Error(t, err)
}

func TestBackupCommand(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)

	require.NoError(t, execute(t, "--config", cfgPath, "backup"))

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "backup_"))
}

func TestMissingConfig(t *testing.T) {
	err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "backup")
	assert.Error(t, err)
}
