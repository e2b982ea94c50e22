package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"produtos/internal/config"
)

func TestConfigureClosesPoolWhenMigrationFails(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:configure_failure?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A view holding the table name makes CREATE TABLE produto fail.
	require.NoError(t, db.Exec("CREATE VIEW produto AS SELECT 1 AS id").Error)

	err = configure(db, config.DatabaseConfig{Driver: config.DriverSQLite, MaxOpenConns: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to migrate database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "pool should be closed")
}

func TestConfigureKeepsPoolOnSuccess(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:configure_success?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, configure(db, config.DatabaseConfig{Driver: config.DriverSQLite, MaxOpenConns: 2, MaxIdleConns: 1}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
	assert.Equal(t, 2, sqlDB.Stats().MaxOpenConnections)
}
