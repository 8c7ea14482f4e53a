package database

import (
	"path/filepath"
	"testing"

	"github.com/pinnlo/pinnlo-server/config"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "cards.db"),
	}, logger.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, table := range []any{&models.Card{}, &models.Group{}, &models.GroupCard{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, logger.Nop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenMemoryIsolated(t *testing.T) {
	a, err := OpenMemory()
	require.NoError(t, err)
	b, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, a.Create(&models.Group{Name: "only in a", Color: "blue"}).Error)
	var n int64
	require.NoError(t, b.Model(&models.Group{}).Count(&n).Error)
	assert.Zero(t, n)
}
