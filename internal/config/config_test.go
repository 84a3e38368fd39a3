package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "helpdesk-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.Cache.RosterTTL())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("CACHE_ENGINEER_ROSTER_TTL_SECONDS", "60")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.App.Addr())
	assert.Equal(t, 15, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, time.Minute, cfg.Cache.RosterTTL())
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestGetEnvAsIntBadValue(t *testing.T) {
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
}
