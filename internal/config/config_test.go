package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Millisecond, cfg.LockWait())
	assert.Equal(t, 10*time.Millisecond, cfg.LockHold())
	assert.Equal(t, 24*time.Hour, cfg.StatsTTL())
	assert.Equal(t, 60*time.Second, cfg.PostSyncPeriod())
	assert.Equal(t, 60*time.Second, cfg.CommentSyncPeriod())
	assert.Equal(t, 60*time.Second, cfg.FollowSyncPeriod())
}

func TestPerDomainSyncPeriodOverride(t *testing.T) {
	t.Setenv("SYNC_POST_PERIOD_SECONDS", "15")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.PostSyncPeriod())
	assert.Equal(t, 60*time.Second, cfg.CommentSyncPeriod(), "остальные домены — общий период")
}

func TestDSNMasksNothingButStringDoes(t *testing.T) {
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "tenten")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://svc:secret@db:5432/tenten?sslmode=disable", cfg.GetDSN())
	assert.NotContains(t, cfg.String(), "secret")
}
