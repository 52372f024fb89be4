package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "REDIS_ADDR", "NOTIFY_DRIVER", "NOTIFY_CHANNEL",
		"NOTIFY_EVENT", "LOG_LEVEL", "MIGRATE", "DASHBOARD_WORKERS", "KAFKA_BROKERS", "API_BASE_URL", "POSTGRES_MAX_CONNS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "log", cfg.NotifyDriver)
	assert.Equal(t, "orders-channel", cfg.NotifyChannel)
	assert.Equal(t, "new-order", cfg.NotifyEvent)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, 4, cfg.DashboardWorkers)
	assert.Equal(t, int32(8), cfg.PostgresConns)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("NOTIFY_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MIGRATE", "false")
	t.Setenv("API_BASE_URL", "http://api:8081/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.Migrate)
	assert.Equal(t, "http://api:8081", cfg.APIBaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, val string
	}{
		{"STORE_DRIVER", "mysql"},
		{"NOTIFY_DRIVER", "sms"},
		{"MIGRATE", "maybe"},
		{"DASHBOARD_WORKERS", "0"},
		{"LOG_LEVEL", "loud"},
		{"POSTGRES_MAX_CONNS", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("redis notify without redis", func(t *testing.T) {
		t.Setenv("NOTIFY_DRIVER", "redis")
		t.Setenv("REDIS_ADDR", "")
		_, err := Load()
		assert.Error(t, err)
	})
}
