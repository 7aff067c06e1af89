package db

import (
	"path/filepath"
	"testing"

	"iotgw/internal/models"

	"github.com/stretchr/testify/require"
)

func TestOpenWithoutDriver(t *testing.T) {
	gdb, err := Open("", "")
	require.NoError(t, err)
	require.Nil(t, gdb)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenSqliteAndMigrate(t *testing.T) {
	gdb, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NotNil(t, gdb)

	require.NoError(t, gdb.AutoMigrate(&models.Gateway{}, &models.Device{}))

	// индексы накатываются и повторный прогон безвреден
	require.NoError(t, MigrateUniqueIndexes(gdb))
	require.NoError(t, MigrateUniqueIndexes(gdb))
	require.True(t, gdb.Migrator().HasTable("gateways"))
	require.True(t, gdb.Migrator().HasTable("devices"))
}

func TestMigrateUniqueIndexesNilDB(t *testing.T) {
	require.NoError(t, MigrateUniqueIndexes(nil))
}
