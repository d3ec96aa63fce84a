package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sttalk-api", cfg.AppName)
	assert.Equal(t, 40, cfg.MatchMinScore)
	assert.Equal(t, 10, cfg.MatchMaxCandidates)
	assert.Equal(t, 5, cfg.AutoMatchLimit)
	assert.Equal(t, 30*time.Second, cfg.AutoMatchLockTTL())
	assert.Equal(t, 10*time.Second, cfg.DatabaseConnMaxLifetime)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"GET", "POST"}, cfg.AllowMethods)
	assert.True(t, cfg.DatabaseMigrateOnStart)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("MATCH_MIN_SCORE", "55")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DB_CONN_MAX_LIFETIME", "1m")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 55, cfg.MatchMinScore)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.DatabaseConnMaxLifetime)
	assert.True(t, cfg.RedisEnabled)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUTO_MATCH_LIMIT=3\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("AUTO_MATCH_LIMIT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.AutoMatchLimit)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	t.Setenv("MATCH_MIN_SCORE", "140")
	_, err := Load("")
	assert.ErrorContains(t, err, "MATCH_MIN_SCORE")
}
