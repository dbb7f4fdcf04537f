package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSplitStatements(t *testing.T) {
	statements := splitStatements(`
-- accounts
CREATE TABLE a (
	id TEXT PRIMARY KEY
);

CREATE INDEX idx_a ON a (id);
`)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "CREATE TABLE a")
	assert.Equal(t, "CREATE INDEX idx_a ON a (id);", statements[1])
}

func TestMigrateDirAppliesOnce(t *testing.T) {
	gormDB, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_init.sql"), []byte("CREATE TABLE things (id TEXT PRIMARY KEY);\nCREATE INDEX idx_things ON things (id);\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0002_more.sql"), []byte("ALTER TABLE things ADD COLUMN name TEXT;\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	pending, err := PendingMigrations(gormDB, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_more.sql"}, pending)

	require.NoError(t, MigrateDir(gormDB, dir))
	require.NoError(t, MigrateDir(gormDB, dir))

	pending, err = PendingMigrations(gormDB, dir)
	require.NoError(t, err)
	assert.Empty(t, pending)
	require.NoError(t, gormDB.Exec("INSERT INTO things (id, name) VALUES ('a', 'b')").Error)
}
