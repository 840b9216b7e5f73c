package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	t.Setenv("CONFIG_FILE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 characters")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 64, cfg.Relay.SubscriberBuffer)
	assert.True(t, cfg.Documents.CascadeOnDelete())
	assert.Equal(t, 7*24*time.Hour, cfg.Documents.InvitationTTL)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "jwt_secret: file-secret-0123456789abcdef0123\nrelay:\n  subscriber_buffer: 16\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "env-secret-0123456789abcdef012345")

	cfg, err := Load()
	require.NoError(t, err)

	// The environment wins over the file for the secret; the file value
	// survives where no environment variable is set.
	assert.Equal(t, "env-secret-0123456789abcdef012345", cfg.JWTSecret)
	assert.Equal(t, 16, cfg.Relay.SubscriberBuffer)
}
