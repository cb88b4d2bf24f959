package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadReadsFileAndAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  user: catmatch
  password: secret
matching:
  top_n: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "catmatch", cfg.Database.User)
	assert.Equal(t, 3, cfg.Matching.TopN)

	// Unset fields take defaults.
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultTenantHeader, cfg.Multitenancy.TenantHeader)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  mode: production
database:
  user: catmatch
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  user: catmatch
`)
	t.Setenv("CATMATCH_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CATMATCH_DATABASE_USER", "envuser")
	t.Setenv("CATMATCH_DATABASE_HOST", "db.internal")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadFromEnvMissingRequired(t *testing.T) {
	// No CATMATCH_DATABASE_USER set; database.user has no default.
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.user")
}

func TestMustLoadPanicsOnBadPath(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}
