package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var keys = []string{
	"ENVIRONMENT", "LOG_LEVEL", "LOG_FILE", "PORT", "GROUP_DB_CONFIG", "RPS_LIMIT", "RPS_BURST",
	"SEED_SAMPLE_DATA", "METADATA_FETCH_TIMEOUT", "METADATA_CACHE_TYPE", "METADATA_CACHE_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
}

// clearEnv blanks every key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	// Keep a stray .env in the working directory from leaking in
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load(zap.NewNop())
	require.Equal(t, &Config{
		Environment:          "production",
		LogLevel:             "info",
		Port:                 "8080",
		RPSLimit:             10,
		RPSBurst:             20,
		SeedSampleData:       true,
		MetadataFetchTimeout: 10 * time.Second,
		MetadataCacheType:    CacheMemory,
		MetadataCacheTTL:     time.Hour,
		RedisAddr:            "localhost:6379",
	}, cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "9090")
	t.Setenv("GROUP_DB_CONFIG", `{"db_type":"memory"}`)
	t.Setenv("RPS_LIMIT", "2.5")
	t.Setenv("RPS_BURST", "5")
	t.Setenv("SEED_SAMPLE_DATA", "false")
	t.Setenv("METADATA_FETCH_TIMEOUT", "3s")
	t.Setenv("METADATA_CACHE_TYPE", "redis")
	t.Setenv("METADATA_CACHE_TTL", "15m")
	t.Setenv("REDIS_DB", "2")

	cfg := Load(zap.NewNop())
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, `{"db_type":"memory"}`, cfg.GroupDBConfig)
	require.Equal(t, 2.5, cfg.RPSLimit)
	require.Equal(t, 5, cfg.RPSBurst)
	require.False(t, cfg.SeedSampleData)
	require.Equal(t, 3*time.Second, cfg.MetadataFetchTimeout)
	require.Equal(t, CacheRedis, cfg.MetadataCacheType)
	require.Equal(t, 15*time.Minute, cfg.MetadataCacheTTL)
	require.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPS_BURST", "many")
	t.Setenv("RPS_LIMIT", "-1")
	t.Setenv("SEED_SAMPLE_DATA", "sometimes")
	t.Setenv("METADATA_FETCH_TIMEOUT", "soon")
	t.Setenv("METADATA_CACHE_TYPE", "memcached")

	core, logs := observer.New(zap.WarnLevel)
	cfg := Load(zap.New(core))
	require.Equal(t, 20, cfg.RPSBurst)
	require.Equal(t, 10.0, cfg.RPSLimit)
	require.True(t, cfg.SeedSampleData)
	require.Equal(t, 10*time.Second, cfg.MetadataFetchTimeout)
	require.Equal(t, CacheMemory, cfg.MetadataCacheType)
	require.Equal(t, 5, logs.Len())
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PORT")
	require.NoError(t, os.WriteFile(".env", []byte("PORT=7070\n"), 0o600))

	cfg := Load(zap.NewNop())
	require.Equal(t, "7070", cfg.Port)
}
