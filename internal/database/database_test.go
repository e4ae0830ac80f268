package database

import (
	"path/filepath"
	"testing"

	"github.com/OCAP2/markers/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.db")
	m := NewManager(zerolog.Nop())

	err := m.Connect(config.StorageConfig{Type: config.StorageSQLite, SQLite: config.SQLiteConfig{Path: path}})
	require.NoError(t, err)
	defer m.Close()

	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.FileExists(t, path)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())
}

func TestConnect_InMemory(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(config.StorageConfig{Type: config.StorageSQLite}))
	defer m.Close()

	require.NoError(t, m.DB.Exec("CREATE TABLE t (v INTEGER)").Error)
	require.NoError(t, m.DB.Exec("INSERT INTO t VALUES (1)").Error)

	var n int64
	require.NoError(t, m.DB.Table("t").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestConnect_PostgresFallsBackToSQLite(t *testing.T) {
	m := NewManager(zerolog.Nop())
	cfg := config.StorageConfig{
		Type:   config.StoragePostgres,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "fallback.db")},
		Postgres: config.PostgresConfig{
			Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "d",
		},
	}

	require.NoError(t, m.Connect(cfg))
	defer m.Close()

	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())
}

func TestConnect_UnknownType(t *testing.T) {
	m := NewManager(zerolog.Nop())
	err := m.Connect(config.StorageConfig{Type: "memory"})
	assert.Error(t, err)
	assert.False(t, m.IsValid)
}

func TestClose_Unconnected(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.NoError(t, m.Close())
}
