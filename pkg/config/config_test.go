package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
cluster:
  nodeId: node-1
self:
  moduleId: okapi-tenantd
  version: 1.0.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "node-1", cfg.Cluster.NodeID)
	assert.Equal(t, "127.0.0.1:7950", cfg.Cluster.BindAddr)
	assert.Equal(t, "./data/raft", cfg.Cluster.DataDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "./data/store", cfg.StoreDir)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
cluster:
  nodeId: node-1
  bindAddr: 10.0.0.1:7950
  dataDir: /var/lib/tenantd/raft
httpAddr: :9090
logLevel: debug
logJson: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7950", cfg.Cluster.BindAddr)
	assert.Equal(t, "/var/lib/tenantd/raft", cfg.Cluster.DataDir)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenantd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}
