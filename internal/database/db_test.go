package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Name: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestNewAndMigrate(t *testing.T) {
	db := newTestDB(t)

	// The schema is idempotent, a second run must not fail.
	require.NoError(t, db.Migrate())

	for _, table := range []string{"accounts", "activities", "settings"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, db.HealthCheck(ctx))
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestBuildConnectionString(t *testing.T) {
	std := buildConnectionString("/tmp/a.db", ProfileStandard)
	assert.Contains(t, std, "journal_mode(WAL)")
	assert.Contains(t, std, "synchronous(NORMAL)")
	assert.Contains(t, std, "busy_timeout(5000)")

	cache := buildConnectionString("/tmp/b.db", ProfileCache)
	assert.Contains(t, cache, "synchronous(OFF)")
}
