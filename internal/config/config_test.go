package config_test

import (
	"testing"
	"time"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/config"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "session", cfg.Auth.CookieName)
	assert.Equal(t, events.TransferCompletedTopic, cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")
	t.Setenv("AUTH_SESSION_TTL", "2h")
	t.Setenv("AUTH_COOKIE_SECURE", "true")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/bank?sslmode=disable")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.Equal(t, config.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/bank?sslmode=disable", cfg.Storage.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Driver = config.DriverMemory
	cfg.Auth.SessionTTL = time.Hour
	assert.Error(t, cfg.Validate(), "secret is required")

	cfg.Auth.Secret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Driver = config.DriverPostgres
	assert.Error(t, cfg.Validate(), "postgres needs a dsn")

	cfg.Storage.Driver = "mongo"
	assert.Error(t, cfg.Validate())
}
