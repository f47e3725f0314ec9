package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, StorageMongo, cfg.StorageDriver)
	assert.Equal(t, BrokerRabbitMQ, cfg.BrokerDriver)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Outbox.Interval)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Cache.OrderTTL)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, "orders", cfg.Redis.KeyPrefix)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("BROKER_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("OUTBOX_INTERVAL", "250")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_POOL_SIZE", "5")

	cfg := NewConfig()

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, BrokerKafka, cfg.BrokerDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.Interval)
	assert.Equal(t, "DEBUG", cfg.Logger.Level)
	assert.Equal(t, 5, cfg.Redis.PoolSize)
}

func TestEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	t.Setenv("SOME_LIST", " , ")

	assert.Equal(t, 7, getIntEnv("SOME_INT", 7))
	assert.Equal(t, []string{"x"}, getListEnv("SOME_LIST", []string{"x"}))
	assert.False(t, getBoolEnv("MISSING_BOOL", false))
}
