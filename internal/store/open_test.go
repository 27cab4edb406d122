package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/softjail/internal/store/memory"
	"github.com/JonMunkholm/softjail/internal/store/sqlstore"
)

func TestOpen_Memory(t *testing.T) {
	h, err := Open(context.Background(), Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.DB{}, h)
	assert.NoError(t, h.Ping(context.Background()))
	assert.NoError(t, h.Close())
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "jail.db")
	h, err := Open(context.Background(), Config{Driver: DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer h.Close()

	assert.IsType(t, &sqlstore.DB{}, h)
	assert.NoError(t, h.Ping(context.Background()))
	assert.FileExists(t, path)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestOpen_PostgresBadURL(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres, URL: "::not a url::"})
	assert.Error(t, err)
}
