package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ENV_NAME", "HTTP_PORT", "HTTPS_PORT", "DATA_DIR", "HASH_KEY", "TLS_CERT_FILE", "TLS_KEY_FILE"} {
		t.Setenv(k, "")
	}
}

func TestLoadRequiresHashKey(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
}

func TestLoadStagingDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASH_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.EnvName)
	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, "3001", cfg.HTTPSPort)
	assert.Equal(t, ".data", cfg.DataDir)
	assert.False(t, cfg.TLSEnabled())
}

func TestLoadProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASH_KEY", "k")
	t.Setenv("ENV_NAME", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.EnvName)
	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, "5001", cfg.HTTPSPort)
}

func TestLoadUnknownEnvFallsBackToStaging(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASH_KEY", "k")
	t.Setenv("ENV_NAME", "qa")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.EnvName)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASH_KEY", "k")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DATA_DIR", "/tmp/records")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "/tmp/records", cfg.DataDir)
}

func TestLoadTLSPairRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("HASH_KEY", "k")
	t.Setenv("TLS_CERT_FILE", "cert.pem")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("TLS_KEY_FILE", "key.pem")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TLSEnabled())
}
