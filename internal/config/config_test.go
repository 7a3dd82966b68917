package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.Production())
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Database.TxTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "expensa", cfg.Session.Issuer)
	assert.Equal(t, uint32(64*1024), cfg.Argon2.Memory)
	assert.Equal(t, uint32(3), cfg.Argon2.Iterations)
	assert.Equal(t, uint8(2), cfg.Argon2.Parallelism)
	assert.Equal(t, 5, cfg.Lockout.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Cooldown)
	assert.Equal(t, "100-M", cfg.Server.RateLimitIP)
	assert.Equal(t, "/login", cfg.Gate.LoginPath)
	assert.Equal(t, "/dashboard", cfg.Gate.LandingPath)
	assert.Empty(t, cfg.Server.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("APP_ENV", "development")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Server.Production())
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 0, cfg.Lockout.MaxAttempts)
}

func TestLoad_SecretRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET is required")

	t.Setenv("SESSION_SECRET", "short")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoad_RejectsUnknownEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("APP_ENV", "staging")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expensa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SESSION_SECRET: "+testSecret+"\nPORT: \"9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, testSecret, cfg.Session.Secret)
}

func TestLoad_RejectsGateRedirectLoop(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("GATE_LOGIN_PATH", "/dashboard")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login path")

	t.Setenv("GATE_LOGIN_PATH", "/signin")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/signin", cfg.Gate.Rules().LoginPath)
	assert.Equal(t, "/dashboard", cfg.Gate.Rules().LandingPath)
}

func TestLoad_WebhookSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("WEBHOOK_SECRET", testSecret)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_SECRET must differ")

	t.Setenv("WEBHOOK_SECRET", "hook-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hook-secret", cfg.Webhook.Secret)
}
