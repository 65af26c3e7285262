package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 50*time.Hour, cfg.KeyTTL)
	assert.Equal(t, 10, cfg.MaxLabels)
	assert.Equal(t, 5_000_000, cfg.MaxImageBytes)
	assert.Equal(t, 6, cfg.ChannelPollAttempts)
	assert.Equal(t, 10*time.Second, cfg.ChannelPollInterval)
	assert.Equal(t, time.Minute, cfg.FinishSweepInterval)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BIND_ADDRESS", "0.0.0.0")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("POST_CHANNEL", "#shiritori")
	t.Setenv("FINISH_SWEEP_INTERVAL", "30s")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "#shiritori", cfg.PostChannel)
	assert.Equal(t, 30*time.Second, cfg.FinishSweepInterval)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"STORAGE_DRIVER":        "mongo",
		"LOG_FORMAT":            "xml",
		"DEFAULT_LIMIT_HOURS":   "72",
		"FINISH_SWEEP_INTERVAL": "0s",
		"REDIS_DB":              "one",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestInitLogger(t *testing.T) {
	logger, err := InitLogger(&Config{LogLevel: "debug", LogFormat: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = InitLogger(&Config{LogLevel: "loud", LogFormat: "json"})
	assert.Error(t, err)
}

func TestInitDBSQLite(t *testing.T) {
	db, err := InitDB(&Config{StorageDriver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
	assert.NoError(t, sqlDB.Close())

	_, err = InitDB(&Config{StorageDriver: DriverMemory})
	assert.Error(t, err)
}
