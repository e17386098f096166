package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(Options{Driver: "sqlite", DSN: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)").Error)
	require.NoError(t, db.Exec("INSERT INTO t (id) VALUES (1)").Error)

	var n int64
	require.NoError(t, db.Table("t").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "mysql", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported driver")
}
