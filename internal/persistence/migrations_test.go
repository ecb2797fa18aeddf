package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)
}

func TestMigrationFilesMissingDir(t *testing.T) {
	_, err := migrationFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRepoMigrationsPresent(t *testing.T) {
	files, err := migrationFiles("../../migrations")
	require.NoError(t, err)
	assert.Contains(t, files, "001_init.sql")
}
