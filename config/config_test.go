package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))
	return dir
}

func TestLoadFromFile(t *testing.T) {
	dir := writeConfig(t, `
[server]
port = "9090"

[database]
driver = "postgres"
dsn = "postgres://pinnlo@localhost/pinnlo"

[auth]
jwt_secret = "s3cret"

[enhancer]
url = "https://example.test/enhance"
timeout = "15s"

[bulk]
concurrency = 3

[cors]
allow_origins = ["https://app.pinnlo.test"]
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://pinnlo@localhost/pinnlo", cfg.Database.DSN)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://example.test/enhance", cfg.Enhancer.URL)
	assert.Equal(t, 15*time.Second, cfg.Enhancer.Timeout)
	assert.Equal(t, 3, cfg.Bulk.Concurrency)
	assert.Equal(t, []string{"https://app.pinnlo.test"}, cfg.CORS.AllowOrigins)
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("PINNLO_AUTH_JWT_SECRET", "from-env")
	t.Setenv("PINNLO_SERVER_PORT", "7000")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "cards.db", cfg.Database.Path)
	assert.Equal(t, 60*time.Second, cfg.Enhancer.Timeout)
	assert.Equal(t, 8, cfg.Bulk.Concurrency)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "[server]\nport = \"1\"\n"))
	assert.ErrorContains(t, err, "jwt_secret")

	_, err = Load(writeConfig(t, "[auth]\njwt_secret = \"x\"\n[database]\ndriver = \"postgres\"\n"))
	assert.ErrorContains(t, err, "database.dsn")

	_, err = Load(writeConfig(t, "[auth]\njwt_secret = \"x\"\n[database]\ndriver = \"mysql\"\n"))
	assert.ErrorContains(t, err, "unsupported database.driver")

	cfg, err := Load(writeConfig(t, "[auth]\njwt_secret = \"x\"\n[bulk]\nconcurrency = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Bulk.Concurrency)

	_, err = Load(writeConfig(t, "not = [valid toml"))
	assert.ErrorContains(t, err, "read config")
}
