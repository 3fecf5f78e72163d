package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-vault/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
port: 9090
log:
  format: json
rate_limit:
  burst: 5
auto_release_interval: 30s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "absent fields keep their default")
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, float64(10), cfg.RateLimit.RPS)
	assert.Equal(t, 30*time.Second, cfg.AutoReleaseInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "port: 9090\ndb_path: from-file.db\n")
	t.Setenv("VAULT_PORT", "7070")
	t.Setenv("VAULT_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("VAULT_SIGNATURE_SKEW", "1m")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "from-file.db", cfg.DBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.SignatureSkew)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeFile(t, "port: [1, 2]"))
	assert.Error(t, err)

	t.Setenv("VAULT_PORT", "not-a-port")
	_, err = config.Load("")
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	cfg := config.Defaults()
	cfg.Port = 0
	cfg.Log.Level = "loud"
	cfg.SignatureSkew = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 0 out of range")
	assert.Contains(t, err.Error(), "unknown log level")
	assert.Contains(t, err.Error(), "signature_skew")
}
