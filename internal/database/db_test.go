package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "nested", name+".db"),
		Name: name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectory(t *testing.T) {
	db := newTempDB(t, "history")

	assert.Equal(t, "history", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
	assert.NoError(t, db.QuickCheck(context.Background()))

	var mode string
	require.NoError(t, db.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", strings.ToLower(mode))
}

func TestConnectionString(t *testing.T) {
	conn := connectionString("/tmp/x.db")
	assert.True(t, strings.HasPrefix(conn, "/tmp/x.db?_pragma=journal_mode(WAL)"))
	assert.Contains(t, conn, "&_pragma=synchronous(OFF)")
	assert.Contains(t, conn, "&_pragma=busy_timeout(5000)")
}

func TestMigrate_HistorySchemaIsIdempotent(t *testing.T) {
	db := newTempDB(t, "history")

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	var count int
	err := db.Conn().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('price_history', 'symbol_names')`,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTempDB(t, "scratch")
	assert.NoError(t, db.Migrate())

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master`).Scan(&count))
	assert.Zero(t, count)
}

func TestGetStats(t *testing.T) {
	db := newTempDB(t, "history")
	require.NoError(t, db.Migrate())

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
	assert.GreaterOrEqual(t, stats.FreePages, int64(0))
}

func TestIntegrityCheckAndCheckpoint(t *testing.T) {
	db := newTempDB(t, "history")
	require.NoError(t, db.Migrate())
	ctx := context.Background()

	require.NoError(t, db.IntegrityCheck(ctx))

	res, err := db.Checkpoint(ctx)
	require.NoError(t, err)
	assert.False(t, res.Busy)
	assert.GreaterOrEqual(t, res.WALPages, res.Checkpointed)

	require.NoError(t, db.Close())
	assert.Error(t, db.IntegrityCheck(ctx))
}
