package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, SnapshotLatest, cfg.SnapshotMode)
}

func writeTempIni(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "replica.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadOverlaysReplicaSection(t *testing.T) {
	path := writeTempIni(t, `
[replica]
host = 10.0.0.5
port = 3307
username = repl
password = secret
database = orders
server_id = 42
databases = orders,catalog
tables = orders.items, catalog
include_ddl = true
gtid_filter = 3e11fa47-71ca-11e1-9e33-c80aa9429562:1-5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "repl", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "orders", cfg.Database)
	assert.Equal(t, uint32(42), cfg.ServerID)
	assert.Equal(t, []string{"orders", "catalog"}, cfg.Databases)
	assert.Equal(t, []string{"orders.items", "catalog"}, cfg.Tables)
	assert.True(t, cfg.IncludeDDL)
	assert.NotEmpty(t, cfg.GtidFilter)
}

func TestAllowsDatabase(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.AllowsDatabase("anything"))

	cfg.Databases = []string{"orders"}
	assert.True(t, cfg.AllowsDatabase("orders"))
	assert.False(t, cfg.AllowsDatabase("catalog"))
}

func TestAllowsTable(t *testing.T) {
	cfg := Default()
	cfg.Databases = []string{"orders"}
	cfg.Tables = []string{"items", "catalog.products"}

	assert.True(t, cfg.AllowsTable("orders", "items"))
	assert.False(t, cfg.AllowsTable("orders", "customers"))
	assert.False(t, cfg.AllowsTable("catalog", "items"))
}
