package database

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"

	"github.com/pageza/recipe-pages/backend/config"
)

func TestOpenSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")

	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestPingClosesUnreachablePool(t *testing.T) {
	sqlDB, err := sql.Open(sqlite.DriverName, filepath.Join(t.TempDir(), "missing", "test.db"))
	require.NoError(t, err)

	err = ping(sqlDB, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error connecting to the database")
	assert.ErrorContains(t, sqlDB.Ping(), "database is closed")
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql", DSN: "x"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewRedisClientBadURL(t *testing.T) {
	_, err := NewRedisClient(config.RedisConfig{URL: "://bad"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}
